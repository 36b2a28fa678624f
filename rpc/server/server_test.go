package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/lib/store/lstore"
	storetesting "github.com/ValentinKolb/dRel/lib/store/testing"
	"github.com/ValentinKolb/dRel/rpc/client"
	"github.com/ValentinKolb/dRel/rpc/common"
	"github.com/ValentinKolb/dRel/rpc/serializer"
	"github.com/ValentinKolb/dRel/rpc/server"
	rpchttp "github.com/ValentinKolb/dRel/rpc/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shardID = 7

// startServer serves a local store for f on an httptest server and returns its URL.
func startServer(t *testing.T, f store.MatrixFactory, ser serializer.IRPCSerializer) string {
	t.Helper()
	tr := rpchttp.NewHttpServerTransport()
	srv := server.NewRPCServer(common.ServerConfig{}, tr, ser)
	srv.AddShard(shardID, lstore.NewLocalStore(f))

	ts := httptest.NewServer(tr.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newClient(t *testing.T, url string, shard uint64, ser serializer.IRPCSerializer) store.IStore {
	t.Helper()
	s, err := client.NewRPCStore(shard, common.ClientConfig{
		Endpoints:     []string{url},
		TimeoutSecond: 5,
		RetryCount:    1,
	}, rpchttp.NewHttpClientTransport(), ser)
	require.NoError(t, err)
	return s
}

func TestRPCStore(t *testing.T) {
	for _, name := range []string{"json", "gob"} {
		ser, err := serializer.New(name)
		require.NoError(t, err)

		storetesting.RunStoreTests(t, "RPCStore/"+name, func(t *testing.T, f store.MatrixFactory) store.IStore {
			return newClient(t, startServer(t, f, ser), shardID, ser)
		})
	}
}

func TestUnknownShard(t *testing.T) {
	ser := serializer.NewJSONSerializer()
	url := startServer(t, storetesting.Matrix(store.TopologyOneToMany), ser)

	s := newClient(t, url, 99, ser)
	_, _, err := s.Get("alice", "book-1")
	storetesting.RequireCode(t, err, store.RetCInternalError)
	assert.Contains(t, err.Error(), "shard 99 not found")
}

func TestMalformedRequest(t *testing.T) {
	url := startServer(t, storetesting.Matrix(store.TopologyOneToMany), serializer.NewJSONSerializer())

	resp, err := http.Post(url+"/7", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"msg_type":"error"`)

	resp2, err := http.Post(url+"/not-a-number", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestMetrics(t *testing.T) {
	ser := serializer.NewJSONSerializer()
	url := startServer(t, storetesting.Matrix(store.TopologyOneToMany), ser)
	s := newClient(t, url, shardID, ser)

	require.NoError(t, s.Add("alice", "book-1", nil))
	require.NoError(t, s.Add("bob", "book-2", nil))
	storetesting.RequireCode(t, s.Add("", "book-3", nil), store.RetCInvalidOperation)
	_, err := s.Rows()
	require.NoError(t, err)

	resp, err := http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	metrics := string(body)
	assert.Contains(t, metrics, `drel_requests_total{shard="7",type="add"} 3`)
	assert.Contains(t, metrics, `drel_request_errors_total{shard="7",type="add"} 1`)
	assert.Contains(t, metrics, `drel_requests_total{shard="7",type="rows"} 1`)
	assert.Contains(t, metrics, `drel_request_duration_seconds_bucket{shard="7",type="add"`)
}

func TestHealth(t *testing.T) {
	url := startServer(t, storetesting.Matrix(store.TopologyOneToMany), serializer.NewJSONSerializer())

	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
