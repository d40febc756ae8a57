package godsiot

// Logical endpoints on the device. Each identifies an internal status
// sub-tree a read or write operation targets.
const (
	endpointStatus   = "/dsiot/edge/adr_0100.dgc_status"
	endpointOutdoor  = "/dsiot/edge/adr_0200.dgc_status"
	endpointEnergy   = "/dsiot/edge/adr_0100.i_power.week_power"
	endpointIdentity = "/dsiot/edge.adp_i"
)

// statusRoot is the root key of every write-operation tree.
const statusRoot = "dgc_status"

// Path addresses a single leaf attribute. Segment 0 is the endpoint the
// request goes to; the remaining segments walk the nested attribute tree
// down to the leaf name.
type Path []string

func (p Path) Endpoint() string { return p[0] }

// Keys returns the tree-walk segments after the endpoint.
func (p Path) Keys() []string { return p[1:] }

func (p Path) Leaf() string { return p[len(p)-1] }

// inner returns the two-level branch prefix used when merging writes that
// share an endpoint. Only settings paths (five segments) have one.
func (p Path) inner() []string {
	if len(p) < 4 {
		return nil
	}
	return p[2:4]
}

func extend(base Path, keys ...string) Path {
	p := make(Path, 0, len(base)+len(keys))
	p = append(p, base...)
	return append(p, keys...)
}

// pathCatalog maps logical attribute identifiers to device paths. Built once
// at init and read-only afterwards; it deliberately holds nothing but paths,
// the value translation tables live in codec.go.
type pathCatalog struct {
	power          Path
	mode           Path
	indoorTemp     Path
	indoorHumidity Path
	outdoorTemp    Path
	macAddress     Path
	model          Path
	tempSettings   map[string]Path            // by mode
	fanSettings    map[string]Path            // by mode
	swingSettings  map[string]map[string]Path // by mode, then axis
	energy         map[string]Path
}

var apiPaths = newPathCatalog()

func newPathCatalog() *pathCatalog {
	e1002 := Path{endpointStatus, statusRoot, "e_1002"}
	e3001 := extend(e1002, "e_3001")
	e1003 := Path{endpointOutdoor, statusRoot, "e_1003"}
	energy := Path{endpointEnergy, "week_power"}

	return &pathCatalog{
		power:          extend(e1002, "e_A002", "p_01"),
		mode:           extend(e3001, "p_01"),
		indoorTemp:     extend(e1002, "e_A00B", "p_01"),
		indoorHumidity: extend(e1002, "e_A00B", "p_02"),
		outdoorTemp:    extend(e1003, "e_A00D", "p_01"),
		macAddress:     Path{endpointIdentity, "adp_i", "mac"},
		model:          extend(e1002, "e_A001", "p_0D"),
		tempSettings: map[string]Path{
			"cool": extend(e3001, "p_02"),
			"heat": extend(e3001, "p_03"),
			"auto": extend(e3001, "p_1D"),
		},
		fanSettings: map[string]Path{
			"auto": extend(e3001, "p_26"),
			"cool": extend(e3001, "p_09"),
			"heat": extend(e3001, "p_0A"),
			"fan":  extend(e3001, "p_28"),
		},
		swingSettings: map[string]map[string]Path{
			"auto": {
				"vertical":   extend(e3001, "p_20"),
				"horizontal": extend(e3001, "p_21"),
			},
			"cool": {
				"vertical":   extend(e3001, "p_05"),
				"horizontal": extend(e3001, "p_06"),
			},
			"heat": {
				"vertical":   extend(e3001, "p_07"),
				"horizontal": extend(e3001, "p_08"),
			},
			"fan": {
				"vertical":   extend(e3001, "p_24"),
				"horizontal": extend(e3001, "p_25"),
			},
			"dry": {
				"vertical":   extend(e3001, "p_22"),
				"horizontal": extend(e3001, "p_23"),
			},
		},
		energy: map[string]Path{
			"today_runtime": extend(energy, "today_runtime"),
			"weekly_data":   extend(energy, "datas"),
		},
	}
}

// resolve looks up a path by its logical identifier, e.g. ("power"),
// ("temp_settings", "cool") or ("swing_settings", "heat", "vertical").
// An unknown key at any level is a catalog error, never a silent default.
func (c *pathCatalog) resolve(keys ...string) (Path, error) {
	fail := func(key string) (Path, error) {
		return nil, NewProtocolError("path key "+key+" not found", nil)
	}

	if len(keys) == 0 {
		return fail("")
	}

	switch keys[0] {
	case "power", "mode", "indoor_temp", "indoor_humidity", "outdoor_temp",
		"mac_address", "model":
		if len(keys) != 1 {
			return fail(keys[1])
		}
		switch keys[0] {
		case "power":
			return c.power, nil
		case "mode":
			return c.mode, nil
		case "indoor_temp":
			return c.indoorTemp, nil
		case "indoor_humidity":
			return c.indoorHumidity, nil
		case "outdoor_temp":
			return c.outdoorTemp, nil
		case "mac_address":
			return c.macAddress, nil
		default:
			return c.model, nil
		}
	case "temp_settings", "fan_settings", "energy":
		if len(keys) != 2 {
			return fail(keys[0])
		}
		var group map[string]Path
		switch keys[0] {
		case "temp_settings":
			group = c.tempSettings
		case "fan_settings":
			group = c.fanSettings
		default:
			group = c.energy
		}
		if p, ok := group[keys[1]]; ok {
			return p, nil
		}
		return fail(keys[1])
	case "swing_settings":
		if len(keys) != 3 {
			return fail(keys[0])
		}
		axes, ok := c.swingSettings[keys[1]]
		if !ok {
			return fail(keys[1])
		}
		if p, ok := axes[keys[2]]; ok {
			return p, nil
		}
		return fail(keys[2])
	}
	return fail(keys[0])
}

// supportsTemperature reports whether mode has a target temperature setting.
func (c *pathCatalog) supportsTemperature(mode string) bool {
	_, ok := c.tempSettings[mode]
	return ok
}

func (c *pathCatalog) supportsFan(mode string) bool {
	_, ok := c.fanSettings[mode]
	return ok
}

func (c *pathCatalog) supportsSwing(mode string) bool {
	_, ok := c.swingSettings[mode]
	return ok
}
