package wire

// BCD splits calendar sub-field v (0..99) into decimal digits.
// Values above 99 keep only two low digits.
func BCD(v uint) (tens, ones uint8) {
	return uint8((v / 10) % 10), uint8(v % 10)
}

// Bit width of tens digit per timestamp unit, enough for legal maximum.
const (
	SecondTensBits = 3 // 5
	MinuteTensBits = 3 // 5
	HourTensBits   = 2 // 2
	DayTensBits    = 2 // 3
	MonthTensBits  = 1 // 1
	YearTensBits   = 4 // 9
	OnesBits       = 4
)
