package main

import (
	"math"
	"math/rand"
)

// reading matches the /sensor-data payload.
type reading struct {
	Light    float64 `json:"light"`
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

// generator walks each channel randomly within plausible outdoor bounds.
type generator struct {
	rnd *rand.Rand
	cur reading
}

func newGenerator(seed int64) *generator {
	return &generator{
		rnd: rand.New(rand.NewSource(seed)),
		cur: reading{Light: 8000, Temp: 27, Humidity: 60},
	}
}

func (g *generator) next() reading {
	g.cur.Light = step(g.rnd, g.cur.Light, 2500, 0, 80000)
	g.cur.Temp = step(g.rnd, g.cur.Temp, 0.8, 10, 42)
	g.cur.Humidity = step(g.rnd, g.cur.Humidity, 3, 10, 100)
	return reading{
		Light:    math.Round(g.cur.Light),
		Temp:     math.Round(g.cur.Temp*10) / 10,
		Humidity: math.Round(g.cur.Humidity),
	}
}

func step(rnd *rand.Rand, v, maxDelta, lo, hi float64) float64 {
	v += (rnd.Float64()*2 - 1) * maxDelta
	return math.Max(lo, math.Min(hi, v))
}
