package spec

import "encoding/json"

// Resolve overrides the default sharing of scales and guides per channel.
type Resolve struct {
	Scale  map[Channel]ResolveMode
	Axis   map[Channel]ResolveMode
	Legend map[Channel]ResolveMode
}

func (r *Resolve) UnmarshalJSON(data []byte) error {
	var raw struct {
		Scale  json.RawMessage `json:"scale"`
		Axis   json.RawMessage `json:"axis"`
		Legend json.RawMessage `json:"legend"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Resolve{}
	for _, part := range []struct {
		path string
		raw  json.RawMessage
		dst  *map[Channel]ResolveMode
	}{
		{"resolve.scale", raw.Scale, &r.Scale},
		{"resolve.axis", raw.Axis, &r.Axis},
		{"resolve.legend", raw.Legend, &r.Legend},
	} {
		if len(part.raw) == 0 {
			continue
		}
		m, err := channelMap[ResolveMode](part.raw)
		if err != nil {
			return atPath(part.path, err)
		}
		*part.dst = m
	}
	return nil
}
