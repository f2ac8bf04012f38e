// Package a2s implements a client for the Valve A2S server-query
// protocol over UDP: A2S_INFO, A2S_PLAYER and A2S_RULES requests with
// challenge handling, and the decoding of their single-datagram
// responses. Responses split across multiple packets are out of scope.
package a2s

// ServerType describes how the queried server is hosted.
type ServerType byte

// Server type values from the info response.
const (
	ServerTypeUnknown      ServerType = 0
	ServerTypeDedicated    ServerType = 'd'
	ServerTypeNonDedicated ServerType = 'l'
	ServerTypeProxy        ServerType = 'p'
)

func serverTypeOf(b byte) ServerType {
	switch ServerType(b) {
	case ServerTypeDedicated, ServerTypeNonDedicated, ServerTypeProxy:
		return ServerType(b)
	default:
		return ServerTypeUnknown
	}
}

func (t ServerType) String() string {
	switch t {
	case ServerTypeDedicated:
		return "dedicated"
	case ServerTypeNonDedicated:
		return "non-dedicated"
	case ServerTypeProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// Environment describes the operating system of the queried server.
type Environment byte

// Environment values from the info response. Old Mac servers report
// 'o' instead of 'm'; both map to EnvironmentMac.
const (
	EnvironmentUnknown Environment = 0
	EnvironmentLinux   Environment = 'l'
	EnvironmentWindows Environment = 'w'
	EnvironmentMac     Environment = 'm'
)

func environmentOf(b byte) Environment {
	switch b {
	case 'l':
		return EnvironmentLinux
	case 'w':
		return EnvironmentWindows
	case 'm', 'o':
		return EnvironmentMac
	default:
		return EnvironmentUnknown
	}
}

func (e Environment) String() string {
	switch e {
	case EnvironmentLinux:
		return "linux"
	case EnvironmentWindows:
		return "windows"
	case EnvironmentMac:
		return "mac"
	default:
		return "unknown"
	}
}

// Visibility reports whether the server requires a password.
type Visibility byte

// Visibility values from the info response.
const (
	VisibilityPublic  Visibility = 0
	VisibilityPrivate Visibility = 1
	VisibilityUnknown Visibility = 0xFF
)

func visibilityOf(b byte) Visibility {
	switch Visibility(b) {
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(b)
	default:
		return VisibilityUnknown
	}
}

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// VAC reports the server's anti-cheat status.
type VAC byte

// VAC values from the info response.
const (
	VACUnsecured VAC = 0
	VACSecured   VAC = 1
	VACUnknown   VAC = 0xFF
)

func vacOf(b byte) VAC {
	switch VAC(b) {
	case VACUnsecured, VACSecured:
		return VAC(b)
	default:
		return VACUnknown
	}
}

func (v VAC) String() string {
	switch v {
	case VACUnsecured:
		return "unsecured"
	case VACSecured:
		return "secured"
	default:
		return "unknown"
	}
}

// Extra data flag bits of the info response (EDF byte).
const (
	edfPort     = 0x80
	edfSteamID  = 0x10
	edfSourceTV = 0x40
	edfKeywords = 0x20
	edfGameID   = 0x01
)

// ServerInfo is the decoded A2S_INFO response. Fields after EDF are
// present only when the matching flag bit is set; EDF keeps the raw
// flag byte so callers can tell unset from zero.
type ServerInfo struct {
	Protocol    byte        `json:"protocol"`
	Name        string      `json:"name"`
	Map         string      `json:"map"`
	Folder      string      `json:"folder"`
	Game        string      `json:"game"`
	AppID       int16       `json:"app_id"`
	Players     uint8       `json:"players"`
	MaxPlayers  uint8       `json:"max_players"`
	Bots        uint8       `json:"bots"`
	ServerType  ServerType  `json:"server_type"`
	Environment Environment `json:"environment"`
	Visibility  Visibility  `json:"visibility"`
	VAC         VAC         `json:"vac"`
	Version     string      `json:"version"`

	EDF          byte   `json:"edf"`
	Port         uint16 `json:"port,omitempty"`
	SteamID      uint64 `json:"steam_id,omitempty"`
	SourceTVPort uint16 `json:"source_tv_port,omitempty"`
	SourceTVName string `json:"source_tv_name,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	GameID       uint64 `json:"game_id,omitempty"`
}

// Player is one record of the A2S_PLAYER response. Index is the
// position in the reply, not a stable player id.
type Player struct {
	Index    uint8   `json:"index"`
	Name     string  `json:"name"`
	Score    int32   `json:"score"`
	Duration float32 `json:"duration"`
}
