package a2s

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// payload builds little-endian response payloads for the parser tests.
type payload struct {
	bytes.Buffer
}

func (p *payload) b(v byte) *payload {
	p.WriteByte(v)
	return p
}

func (p *payload) str(s string) *payload {
	p.WriteString(s)
	p.WriteByte(0)
	return p
}

// raw writes a string without a terminator, for truncation cases.
func (p *payload) raw(s string) *payload {
	p.WriteString(s)
	return p
}

func (p *payload) u16(v uint16) *payload {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	p.Write(buf[:])
	return p
}

func (p *payload) u32(v uint32) *payload {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	p.Write(buf[:])
	return p
}

func (p *payload) u64(v uint64) *payload {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	p.Write(buf[:])
	return p
}

func (p *payload) f32(v float32) *payload {
	return p.u32(math.Float32bits(v))
}

// infoBase is the fixed part of an info payload up to and including the
// version string.
func infoBase() *payload {
	p := &payload{}
	p.b(17).
		str("Test Server").str("de_dust2").str("csgo").str("Counter-Strike").
		u16(730).
		b(12).b(16).b(2).
		b('d').b('l').b(0).b(1).
		str("1.38.7.9")
	return p
}

func checkInfoBase(t *testing.T, info *ServerInfo) {
	t.Helper()

	if info.Protocol != 17 {
		t.Errorf("Protocol = %d, want 17", info.Protocol)
	}
	if info.Name != "Test Server" {
		t.Errorf("Name = %q, want %q", info.Name, "Test Server")
	}
	if info.Map != "de_dust2" {
		t.Errorf("Map = %q, want %q", info.Map, "de_dust2")
	}
	if info.Folder != "csgo" {
		t.Errorf("Folder = %q, want %q", info.Folder, "csgo")
	}
	if info.Game != "Counter-Strike" {
		t.Errorf("Game = %q, want %q", info.Game, "Counter-Strike")
	}
	if info.AppID != 730 {
		t.Errorf("AppID = %d, want 730", info.AppID)
	}
	if info.Players != 12 || info.MaxPlayers != 16 || info.Bots != 2 {
		t.Errorf("counters = %d/%d/%d, want 12/16/2", info.Players, info.MaxPlayers, info.Bots)
	}
	if info.ServerType != ServerTypeDedicated {
		t.Errorf("ServerType = %v, want dedicated", info.ServerType)
	}
	if info.Environment != EnvironmentLinux {
		t.Errorf("Environment = %v, want linux", info.Environment)
	}
	if info.Visibility != VisibilityPublic {
		t.Errorf("Visibility = %v, want public", info.Visibility)
	}
	if info.VAC != VACSecured {
		t.Errorf("VAC = %v, want secured", info.VAC)
	}
	if info.Version != "1.38.7.9" {
		t.Errorf("Version = %q, want %q", info.Version, "1.38.7.9")
	}
}

func TestParseInfoNoExtraData(t *testing.T) {
	info, err := parseInfo(infoBase().Bytes())
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	checkInfoBase(t, info)
	if info.EDF != 0 {
		t.Errorf("EDF = 0x%02X, want 0", info.EDF)
	}
}

func TestParseInfoEDFZero(t *testing.T) {
	info, err := parseInfo(infoBase().b(0x00).Bytes())
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	if info.Port != 0 || info.SteamID != 0 || info.SourceTVPort != 0 ||
		info.SourceTVName != "" || info.Keywords != "" || info.GameID != 0 {
		t.Errorf("EDF 0x00 decoded optional fields: %+v", info)
	}
}

func TestParseInfoEDFPortSteamGame(t *testing.T) {
	p := infoBase().b(0x80 | 0x10 | 0x01).
		u16(27015).
		u64(90071996842861568).
		u64(730)

	info, err := parseInfo(p.Bytes())
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	if info.Port != 27015 {
		t.Errorf("Port = %d, want 27015", info.Port)
	}
	if info.SteamID != 90071996842861568 {
		t.Errorf("SteamID = %d, want 90071996842861568", info.SteamID)
	}
	if info.GameID != 730 {
		t.Errorf("GameID = %d, want 730", info.GameID)
	}
	if info.SourceTVPort != 0 || info.SourceTVName != "" || info.Keywords != "" {
		t.Errorf("unset EDF bits decoded fields: %+v", info)
	}
}

func TestParseInfoEDFAll(t *testing.T) {
	p := infoBase().b(0x80 | 0x10 | 0x40 | 0x20 | 0x01).
		u16(27015).
		u64(90071996842861568).
		u16(27020).str("SourceTV").
		str("secure,cp").
		u64(730)

	info, err := parseInfo(p.Bytes())
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	if info.SourceTVPort != 27020 || info.SourceTVName != "SourceTV" {
		t.Errorf("SourceTV = %d/%q, want 27020/SourceTV", info.SourceTVPort, info.SourceTVName)
	}
	if info.Keywords != "secure,cp" {
		t.Errorf("Keywords = %q, want %q", info.Keywords, "secure,cp")
	}
}

func TestParseInfoUnknownEnums(t *testing.T) {
	p := &payload{}
	p.b(17).
		str("s").str("m").str("f").str("g").
		u16(0).
		b(0).b(0).b(0).
		b('x').b('q').b(9).b(9). // none of these are defined values
		str("v")

	info, err := parseInfo(p.Bytes())
	if err != nil {
		t.Fatalf("parseInfo: %v", err)
	}
	if info.ServerType != ServerTypeUnknown {
		t.Errorf("ServerType = %v, want unknown", info.ServerType)
	}
	if info.Environment != EnvironmentUnknown {
		t.Errorf("Environment = %v, want unknown", info.Environment)
	}
	if info.Visibility != VisibilityUnknown {
		t.Errorf("Visibility = %v, want unknown", info.Visibility)
	}
	if info.VAC != VACUnknown {
		t.Errorf("VAC = %v, want unknown", info.VAC)
	}
}

func TestParseInfoMalformed(t *testing.T) {
	base := infoBase().Bytes()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortResponse},
		{"cut inside map string", base[:20], ErrNoTerminator},
		{"unterminated name", (&payload{}).b(17).raw("Test").Bytes(), ErrNoTerminator},
		{"edf port truncated", append(append([]byte{}, base...), 0x80, 0x01), ErrShortResponse},
		{"edf steamid truncated", append(append([]byte{}, base...), 0x10, 0x01, 0x02), ErrShortResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInfo(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("parseInfo error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("parseInfo error %v does not match ErrMalformed", err)
			}
		})
	}
}

func TestParseChallenge(t *testing.T) {
	token, err := parseChallenge([]byte{0x0A, 0x0B, 0x0C, 0x0D})
	if err != nil {
		t.Fatalf("parseChallenge: %v", err)
	}
	if !bytes.Equal(token, []byte{0x0A, 0x0B, 0x0C, 0x0D}) {
		t.Errorf("token = % X", token)
	}

	if _, err := parseChallenge(nil); !errors.Is(err, ErrEmptyChallenge) {
		t.Errorf("empty payload error = %v, want ErrEmptyChallenge", err)
	}
}

func TestParsePlayers(t *testing.T) {
	p := (&payload{}).b(2).
		b(0).str("alice").u32(42).f32(360.5).
		b(1).str("bob").u32(0xFFFFFFFF).f32(12.25) // score -1

	players, err := parsePlayers(p.Bytes())
	if err != nil {
		t.Fatalf("parsePlayers: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("len = %d, want 2", len(players))
	}

	want := []Player{
		{Index: 0, Name: "alice", Score: 42, Duration: 360.5},
		{Index: 1, Name: "bob", Score: -1, Duration: 12.25},
	}
	for i, w := range want {
		if players[i] != w {
			t.Errorf("player %d = %+v, want %+v", i, players[i], w)
		}
	}
}

func TestParsePlayersEmpty(t *testing.T) {
	players, err := parsePlayers([]byte{0x00})
	if err != nil {
		t.Fatalf("parsePlayers: %v", err)
	}
	if len(players) != 0 {
		t.Errorf("len = %d, want 0", len(players))
	}
}

func TestParsePlayersMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"no count", nil, ErrShortResponse},
		{"unterminated name", (&payload{}).b(1).b(0).raw("alice").Bytes(), ErrNoTerminator},
		{"score truncated", (&payload{}).b(1).b(0).str("alice").b(0x2A).Bytes(), ErrShortResponse},
		{"duration truncated", (&payload{}).b(1).b(0).str("alice").u32(42).b(1).Bytes(), ErrShortResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePlayers(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("parsePlayers error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRules(t *testing.T) {
	p := (&payload{}).u16(2).
		str("mp_friendlyfire").str("1").
		str("sv_cheats").str("0")

	rules, err := parseRules(p.Bytes())
	if err != nil {
		t.Fatalf("parseRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len = %d, want 2", len(rules))
	}
	if rules["mp_friendlyfire"] != "1" {
		t.Errorf("mp_friendlyfire = %q, want 1", rules["mp_friendlyfire"])
	}
	if rules["sv_cheats"] != "0" {
		t.Errorf("sv_cheats = %q, want 0", rules["sv_cheats"])
	}
}

func TestParseRulesDuplicateKeyLastWins(t *testing.T) {
	p := (&payload{}).u16(3).
		str("sv_gravity").str("800").
		str("sv_cheats").str("0").
		str("sv_gravity").str("200")

	rules, err := parseRules(p.Bytes())
	if err != nil {
		t.Fatalf("parseRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len = %d, want 2", len(rules))
	}
	if rules["sv_gravity"] != "200" {
		t.Errorf("sv_gravity = %q, want 200 (last occurrence)", rules["sv_gravity"])
	}
}

func TestParseRulesMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"no count", []byte{0x01}, ErrShortResponse},
		{"unterminated value", (&payload{}).u16(1).str("sv_cheats").raw("0").Bytes(), ErrNoTerminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRules(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("parseRules error = %v, want %v", err, tt.want)
			}
		})
	}
}
