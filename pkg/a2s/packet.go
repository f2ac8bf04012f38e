package a2s

// Wire constants of the simple (single-datagram) packet format.
const (
	cmdInfo      = 0x54 // 'T'
	cmdPlayers   = 0x55 // 'U'
	cmdRules     = 0x56 // 'V'
	tagInfo      = 0x49 // 'I'
	tagChallenge = 0x41 // 'A'
	tagPlayers   = 0x44 // 'D'
	tagRules     = 0x45 // 'E'
)

var marker = []byte{0xFF, 0xFF, 0xFF, 0xFF}

// challengePlaceholder is sent in place of a token to ask the server
// for a challenge.
var challengePlaceholder = []byte{0xFF, 0xFF, 0xFF, 0xFF}

func buildRequest(cmd byte, payload []byte) []byte {
	pkt := make([]byte, 0, len(marker)+1+len(payload))
	pkt = append(pkt, marker...)
	pkt = append(pkt, cmd)
	return append(pkt, payload...)
}

// infoRequest builds the A2S_INFO request datagram.
func infoRequest() []byte {
	payload := append([]byte("Source Engine Query"), 0)
	return buildRequest(cmdInfo, payload)
}

// challengeRequest builds a player request with the placeholder token,
// which makes the server answer with a challenge instead of data.
func challengeRequest() []byte {
	return buildRequest(cmdPlayers, challengePlaceholder)
}

// playersRequest builds the A2S_PLAYER request carrying the challenge.
func playersRequest(challenge []byte) []byte {
	return buildRequest(cmdPlayers, challenge)
}

// rulesRequest builds the A2S_RULES request carrying the challenge.
func rulesRequest(challenge []byte) []byte {
	return buildRequest(cmdRules, challenge)
}
