package service

// Oppoint describes one DVFS operating point.
type Oppoint struct {
	Freq         DVFSFrequency
	MilliVolts   uint16
	PVTMonCycles uint32
	FreqMult     uint32
	TrimEntry    uint32
	MaxHSFLLMHz  uint16
}

var oppoints = [DVFSFreqCount]Oppoint{
	{Freq: DVFSFreqHigh, MilliVolts: 800, PVTMonCycles: 2, FreqMult: 20, TrimEntry: 0, MaxHSFLLMHz: 320},
	{Freq: DVFSFreqMedLow, MilliVolts: 600, PVTMonCycles: 4, FreqMult: 8, TrimEntry: 2, MaxHSFLLMHz: 128},
	{Freq: DVFSFreqLow, MilliVolts: 500, PVTMonCycles: 9, FreqMult: 4, TrimEntry: 3, MaxHSFLLMHz: 64},
}

// OppointFor returns the operating point of a frequency setting. Unknown
// settings map to the lowest operating point.
func OppointFor(f DVFSFrequency) Oppoint {
	if int(f) >= DVFSFreqCount {
		return oppoints[DVFSFreqCount-1]
	}
	return oppoints[f]
}

// MaxHSFLLFrequency returns the highest HSFLL frequency in MHz allowed at f.
func MaxHSFLLFrequency(f DVFSFrequency) uint16 {
	return OppointFor(f).MaxHSFLLMHz
}

// NeedsScaling reports whether moving between two settings changes the voltage.
func NeedsScaling(from, to DVFSFrequency) bool {
	return OppointFor(from).MilliVolts != OppointFor(to).MilliVolts
}
