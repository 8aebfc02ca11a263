package effects

// Parameter ranges of the level mappings.
const (
	minCutoffHz     = 100.0
	maxCutoffHz     = 3000.0
	minModulationHz = 50.0
	maxModulationHz = 500.0
	minHardDrive    = 1.0
	maxHardDrive    = 5.0
	attackSeconds   = 0.05
	minDecaySeconds = 0.1
	maxDecaySeconds = 0.5
	maxCrushBits    = 16
	levelsPerBit    = 6
)

func fraction(level int) float64 {
	return float64(level) / MaxLevel
}

// CutoffHz maps a level to a low-pass cutoff between 100 and 3000 Hz.
func CutoffHz(level int) float64 {
	return minCutoffHz + (maxCutoffHz-minCutoffHz)*fraction(level)
}

// ModulationHz maps a level to a carrier frequency between 50 and 500 Hz.
func ModulationHz(level int) float64 {
	return minModulationHz + (maxModulationHz-minModulationHz)*fraction(level)
}

// ClipThreshold maps a level to a hard clip threshold between 1 and 0.2.
func ClipThreshold(level int) float64 {
	return 1 / (minHardDrive + (maxHardDrive-minHardDrive)*fraction(level))
}

// DecaySeconds maps a level to an envelope decay between 0.5 and 0.1 s.
func DecaySeconds(level int) float64 {
	return maxDecaySeconds - (maxDecaySeconds-minDecaySeconds)*fraction(level)
}

// EffectiveBits maps a level to a quantizer depth: 16 at level 0, one bit
// less every 6 levels, never below 1.
func EffectiveBits(level int) int {
	return max(1, maxCrushBits-level/levelsPerBit)
}

// DriveGain maps a level to a linear gain between 1 and 3.
func DriveGain(level int) float64 {
	return 1 + float64(level)/50
}

// SaturationAmount maps a level to a tanh pre-gain between 1 and 6.
func SaturationAmount(level int) float64 {
	return 1 + float64(level)/20
}
