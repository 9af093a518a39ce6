package peerclient

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"randbeacon/core/curve"
)

func TestCoCommitSuccess(t *testing.T) {
	want, err := curve.RandomScalar(rand.Reader)
	assert.NoError(t, err)
	wantPoint := want.ActOnBase()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req coCommitRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "id-1", req.CommitmentID)

		b := wantPoint.Bytes()
		_ = json.NewEncoder(w).Encode(coCommitResponse{Commitment: hex.EncodeToString(b[:])})
	}))
	defer srv.Close()

	c := New(time.Second)
	dealerCommitment := curve.Identity()
	got, err := c.CoCommit(context.Background(), srv.URL, "id-1", dealerCommitment)
	assert.NoError(t, err)
	assert.True(t, got.Equal(wantPoint))
}

func TestCoCommitNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "already exists"})
	}))
	defer srv.Close()

	c := New(time.Second)
	_, err := c.CoCommit(context.Background(), srv.URL, "id-1", curve.Identity())
	assert.ErrorIs(t, err, ErrPeerUnavailable)
}

func TestCoCommitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // closed before the call, so the connection must fail

	c := New(time.Second)
	_, err := c.CoCommit(context.Background(), url, "id-1", curve.Identity())
	assert.ErrorIs(t, err, ErrPeerUnavailable)
}

func TestCoCommitMalformedResponsePoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(coCommitResponse{Commitment: "not-hex"})
	}))
	defer srv.Close()

	c := New(time.Second)
	_, err := c.CoCommit(context.Background(), srv.URL, "id-1", curve.Identity())
	assert.ErrorIs(t, err, ErrPeerUnavailable)
}
