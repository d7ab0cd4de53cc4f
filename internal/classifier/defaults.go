package classifier

// Built-in band tables. Every boundary is inclusive.

var defaultLight = Table{
	Channel: Light,
	Bands: []Band{
		{Threshold: 50000, Key: "very_bright", Label: "very bright sunshine ☀️"},
		{Threshold: 10000, Key: "outdoor", Label: "outdoors, cloudy or soft sun 🌤"},
		{Threshold: 5000, Key: "overcast", Label: "overcast 🌥"},
		{Threshold: 1000, Key: "daylit_room", Label: "room with daylight 🌈"},
		{Threshold: 500, Key: "office", Label: "office or shop lighting 💡"},
		{Threshold: 100, Key: "living_room", Label: "living-room lighting 🌙"},
		{Threshold: 10, Key: "dim", Label: "dim light 🌑"},
	},
	Floor: Band{Key: "very_dark", Label: "very dark 🕳️"},
}

var defaultTemperature = Table{
	Channel: Temperature,
	Bands: []Band{
		{Threshold: 35, Key: "very_hot", Label: "very hot ⚠️"},
		{Threshold: 30, Key: "hot", Label: "hot 🔥"},
		{Threshold: 25, Key: "warm", Label: "warm 🌞"},
		{Threshold: 20, Key: "comfortable", Label: "comfortable 🌤"},
	},
	Floor: Band{Key: "cool", Label: "cool ❄️"},
}

var defaultHumidity = Table{
	Channel: Humidity,
	Bands: []Band{
		{Threshold: 85, Key: "very_humid", Label: "very humid, stuffy 🌧️"},
		{Threshold: 70, Key: "humid", Label: "humid and sticky 💦"},
		{Threshold: 60, Key: "damp", Label: "getting humid 🌫️"},
		{Threshold: 40, Key: "comfortable", Label: "comfortable ✅"},
		{Threshold: 30, Key: "fairly_dry", Label: "fairly dry 💨"},
		{Threshold: 20, Key: "dry", Label: "dry 🥵"},
	},
	Floor: Band{Key: "very_dry", Label: "very dry 🏜️"},
}

// DefaultTable returns a copy of the built-in table for ch.
func DefaultTable(ch Channel) (Table, bool) {
	var t Table
	switch ch {
	case Light:
		t = defaultLight
	case Temperature:
		t = defaultTemperature
	case Humidity:
		t = defaultHumidity
	default:
		return Table{}, false
	}
	t.Bands = append([]Band(nil), t.Bands...)
	return t, true
}

// Default returns the built-in set.
func Default() *Set {
	s, err := NewSet(defaultLight, defaultTemperature, defaultHumidity)
	if err != nil {
		panic("classifier: built-in tables are invalid: " + err.Error())
	}
	return s
}
