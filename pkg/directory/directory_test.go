package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "http://node" + string(rune('a'+i)) + ".example"
	}
	return out
}

func TestNewRejectsSelfNotInPeers(t *testing.T) {
	_, err := New("http://missing.example", urls(3))
	assert.ErrorIs(t, err, ErrSelfNotInPeers)
}

func TestSelfOthersAll(t *testing.T) {
	peers := urls(3)
	d, err := New(peers[1], peers)
	assert.NoError(t, err)

	assert.Equal(t, peers[1], d.SelfURL())
	assert.Equal(t, peers, d.All())
	assert.ElementsMatch(t, []string{peers[0], peers[2]}, d.Others())
}

func TestThresholdMatchesCeilTwoThirds(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 4, 6: 4}
	for n, want := range cases {
		peers := urls(n)
		d, err := New(peers[0], peers)
		assert.NoError(t, err)
		assert.Equal(t, want, d.Threshold(), "n=%d", n)
	}
}

func TestFanoutPeersSizeAndOrder(t *testing.T) {
	peers := urls(6) // N=6, M=4, |P|=3
	d, err := New(peers[0], peers)
	assert.NoError(t, err)

	fanout := d.FanoutPeers()
	assert.Len(t, fanout, d.Threshold()-1)
	// Must be a deterministic, directory-ordered prefix of Others().
	assert.Equal(t, d.Others()[:len(fanout)], fanout)
}

func TestFanoutPeersEmptyForSoloDirectory(t *testing.T) {
	// A directory of 1 has no peers, M=1, so fanout of M-1=0 is empty.
	d, err := New("http://solo.example", []string{"http://solo.example"})
	assert.NoError(t, err)
	assert.Empty(t, d.FanoutPeers())
}
