package a2s

import (
	"bytes"
	"testing"
)

func TestInfoRequest(t *testing.T) {
	want := append([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x54}, "Source Engine Query\x00"...)
	if got := infoRequest(); !bytes.Equal(got, want) {
		t.Errorf("infoRequest() = % X, want % X", got, want)
	}
}

func TestChallengeRequest(t *testing.T) {
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x55, 0xFF, 0xFF, 0xFF, 0xFF}
	if got := challengeRequest(); !bytes.Equal(got, want) {
		t.Errorf("challengeRequest() = % X, want % X", got, want)
	}
}

func TestPlayersRequest(t *testing.T) {
	token := []byte{0x01, 0x02, 0x03, 0x04}
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x55, 0x01, 0x02, 0x03, 0x04}
	if got := playersRequest(token); !bytes.Equal(got, want) {
		t.Errorf("playersRequest(% X) = % X, want % X", token, got, want)
	}
}

func TestRulesRequest(t *testing.T) {
	token := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x56, 0xAA, 0xBB, 0xCC, 0xDD}
	if got := rulesRequest(token); !bytes.Equal(got, want) {
		t.Errorf("rulesRequest(% X) = % X, want % X", token, got, want)
	}
}
