package a2s

import "slices"

// parseInfo decodes an A2S_INFO response payload (marker and tag
// already stripped). The optional tail is gated by the EDF byte, read
// in the fixed bit order port, steam id, source tv, keywords, game id.
func parseInfo(data []byte) (*ServerInfo, error) {
	r := newReader(data)
	info := &ServerInfo{}

	var err error
	if info.Protocol, err = r.readByte(); err != nil {
		return nil, err
	}
	if info.Name, err = r.readString(); err != nil {
		return nil, err
	}
	if info.Map, err = r.readString(); err != nil {
		return nil, err
	}
	if info.Folder, err = r.readString(); err != nil {
		return nil, err
	}
	if info.Game, err = r.readString(); err != nil {
		return nil, err
	}
	if info.AppID, err = r.readInt16(); err != nil {
		return nil, err
	}
	if info.Players, err = r.readByte(); err != nil {
		return nil, err
	}
	if info.MaxPlayers, err = r.readByte(); err != nil {
		return nil, err
	}
	if info.Bots, err = r.readByte(); err != nil {
		return nil, err
	}

	// Enum bytes never fail: unknown values map to the Unknown variant.
	b, err := r.readByte()
	if err != nil {
		return nil, err
	}
	info.ServerType = serverTypeOf(b)
	if b, err = r.readByte(); err != nil {
		return nil, err
	}
	info.Environment = environmentOf(b)
	if b, err = r.readByte(); err != nil {
		return nil, err
	}
	info.Visibility = visibilityOf(b)
	if b, err = r.readByte(); err != nil {
		return nil, err
	}
	info.VAC = vacOf(b)

	if info.Version, err = r.readString(); err != nil {
		return nil, err
	}

	if r.remaining() == 0 {
		return info, nil
	}

	if info.EDF, err = r.readByte(); err != nil {
		return nil, err
	}
	if info.EDF&edfPort != 0 {
		if info.Port, err = r.readUint16(); err != nil {
			return nil, err
		}
	}
	if info.EDF&edfSteamID != 0 {
		if info.SteamID, err = r.readUint64(); err != nil {
			return nil, err
		}
	}
	if info.EDF&edfSourceTV != 0 {
		if info.SourceTVPort, err = r.readUint16(); err != nil {
			return nil, err
		}
		if info.SourceTVName, err = r.readString(); err != nil {
			return nil, err
		}
	}
	if info.EDF&edfKeywords != 0 {
		if info.Keywords, err = r.readString(); err != nil {
			return nil, err
		}
	}
	if info.EDF&edfGameID != 0 {
		if info.GameID, err = r.readUint64(); err != nil {
			return nil, err
		}
	}

	return info, nil
}

// parseChallenge treats the whole payload as the opaque token. The
// payload aliases the read buffer, so the token is copied.
func parseChallenge(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyChallenge
	}
	return slices.Clone(data), nil
}

// parsePlayers decodes an A2S_PLAYER response payload. The leading
// count byte is not trusted: records are read until the payload is
// exhausted and returned in wire order.
func parsePlayers(data []byte) ([]Player, error) {
	r := newReader(data)

	count, err := r.readByte()
	if err != nil {
		return nil, err
	}

	players := make([]Player, 0, count)
	for r.remaining() > 0 {
		var p Player
		if p.Index, err = r.readByte(); err != nil {
			return nil, err
		}
		if p.Name, err = r.readString(); err != nil {
			return nil, err
		}
		if p.Score, err = r.readInt32(); err != nil {
			return nil, err
		}
		if p.Duration, err = r.readFloat32(); err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, nil
}

// parseRules decodes an A2S_RULES response payload into a name→value
// map. The leading count is skipped unused; on duplicate names the
// last occurrence wins.
func parseRules(data []byte) (map[string]string, error) {
	r := newReader(data)

	count, err := r.readUint16()
	if err != nil {
		return nil, err
	}

	rules := make(map[string]string, count)
	for r.remaining() > 0 {
		name, err := r.readString()
		if err != nil {
			return nil, err
		}
		value, err := r.readString()
		if err != nil {
			return nil, err
		}
		rules[name] = value
	}

	return rules, nil
}
