package network

// DemoNetwork returns a small fixed network around central Amsterdam, served
// when no real source is configured.
func DemoNetwork() []Route {
	return []Route{
		{
			ID:     "demo-18",
			Name:   "Centraal Station - Slotervaart",
			Number: "18",
			Stops: []Stop{
				{ID: "cs", Name: "Centraal Station", Lat: 52.37806, Lon: 4.90005, SequenceIndex: 0},
				{ID: "nmk", Name: "Nieuwmarkt", Lat: 52.37255, Lon: 4.90053, SequenceIndex: 1},
				{ID: "dam", Name: "Dam", Lat: 52.37302, Lon: 4.89274, SequenceIndex: 2},
				{ID: "mrx", Name: "Marnixstraat", Lat: 52.37402, Lon: 4.87917, SequenceIndex: 3},
				{ID: "jvg", Name: "Jan van Galenstraat", Lat: 52.37532, Lon: 4.85580, SequenceIndex: 4},
				{ID: "slv", Name: "Slotervaart", Lat: 52.36161, Lon: 4.83408, SequenceIndex: 5},
			},
		},
		{
			ID:     "demo-22",
			Name:   "Muiderpoort - Spaarndammerbuurt",
			Number: "22",
			Stops: []Stop{
				{ID: "mdp", Name: "Muiderpoort Station", Lat: 52.36036, Lon: 4.93127, SequenceIndex: 0},
				{ID: "art", Name: "Artis", Lat: 52.36636, Lon: 4.91497, SequenceIndex: 1},
				{ID: "wtl", Name: "Waterlooplein", Lat: 52.36767, Lon: 4.90289, SequenceIndex: 2},
				{ID: "cs22", Name: "Centraal Station", Lat: 52.37791, Lon: 4.89890, SequenceIndex: 3},
				{ID: "hbh", Name: "Haarlemmerplein", Lat: 52.38276, Lon: 4.88204, SequenceIndex: 4},
				{ID: "spd", Name: "Spaarndammerstraat", Lat: 52.38893, Lon: 4.87738, SequenceIndex: 5},
			},
		},
		{
			ID:     "demo-48",
			Name:   "Centraal Station - Borneo-eiland",
			Number: "48",
			Stops: []Stop{
				{ID: "cs48", Name: "Centraal Station", Lat: 52.37850, Lon: 4.90200, SequenceIndex: 0},
				{ID: "pth", Name: "Passenger Terminal", Lat: 52.37667, Lon: 4.91515, SequenceIndex: 1},
				{ID: "rtk", Name: "Rietlandpark", Lat: 52.37204, Lon: 4.93187, SequenceIndex: 2},
				{ID: "brn", Name: "Borneolaan", Lat: 52.37497, Lon: 4.94264, SequenceIndex: 3},
			},
		},
	}
}
