package nationalid

// governorates maps the two-digit birth registration code to the governorate
// name. Codes 01-35 cover the 27 governorates plus frontier regions; 88 marks
// citizens born abroad.
var governorates = map[string]string{
	// Major cities
	"01": "Cairo",
	"02": "Alexandria",
	"03": "Port Said",
	"04": "Suez",

	// Delta governorates
	"11": "Damietta",
	"12": "Dakahlia",
	"13": "Sharqia",
	"14": "Qalyubia",
	"15": "Kafr El Sheikh",
	"16": "Gharbia",
	"17": "Monufia",
	"18": "Beheira",
	"19": "Ismailia",

	// Upper Egypt
	"21": "Giza",
	"22": "Beni Suef",
	"23": "Fayoum",
	"24": "Minya",
	"25": "Asyut",
	"26": "Sohag",
	"27": "Qena",
	"28": "Aswan",
	"29": "Luxor",

	// Frontier governorates
	"31": "Red Sea",
	"32": "New Valley",
	"33": "Matrouh",
	"34": "North Sinai",
	"35": "South Sinai",

	// Special codes
	"88": "Foreigner",
}

// GovernorateName resolves a two-digit code, returning "Unknown" and false for
// codes outside the registry.
func GovernorateName(code string) (string, bool) {
	if name, ok := governorates[code]; ok {
		return name, true
	}
	return "Unknown", false
}
