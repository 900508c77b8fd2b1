package constants

// Базовые адреса Yad2
const (
	Yad2BaseURL       = "https://www.yad2.co.il"
	Yad2RentSearchURL = "https://www.yad2.co.il/realestate/rent"
)

// Property type codes
const (
	Yad2Apartment       = "1"
	Yad2GardenApartment = "3"
	Yad2Penthouse       = "6"
	Yad2Studio          = "4"
	Yad2Duplex          = "7"
	Yad2HousingUnit     = "33"
)

const Yad2MaxItemsPerScan = 200

// CityToYad2Map - словарь-переводчик: каноническое имя города в код
// города Yad2, который подставляется в query string поиска.
var CityToYad2Map = map[string]string{
	"tel aviv":      "5000",
	"jerusalem":     "3000",
	"haifa":         "4000",
	"ramat gan":     "8600",
	"givatayim":     "6300",
	"beer sheva":    "9000",
	"rishon lezion": "8300",
	"petah tikva":   "7900",
	"netanya":       "7400",
	"herzliya":      "6400",
}

// PropertyTypeToYad2Map сопоставляет бизнес-тип недвижимости с кодом Yad2.
var PropertyTypeToYad2Map = map[string]string{
	"apartment":        Yad2Apartment,
	"garden apartment": Yad2GardenApartment,
	"penthouse":        Yad2Penthouse,
	"studio":           Yad2Studio,
	"duplex":           Yad2Duplex,
	"housing unit":     Yad2HousingUnit,
}
