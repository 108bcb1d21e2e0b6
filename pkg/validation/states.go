package validation

import "sort"

// States maps GST state codes to state and union territory names.
var States = map[string]string{
	"01": "Jammu and Kashmir",
	"02": "Himachal Pradesh",
	"03": "Punjab",
	"04": "Chandigarh",
	"05": "Uttarakhand",
	"06": "Haryana",
	"07": "Delhi",
	"08": "Rajasthan",
	"09": "Uttar Pradesh",
	"10": "Bihar",
	"11": "Sikkim",
	"12": "Arunachal Pradesh",
	"13": "Nagaland",
	"14": "Manipur",
	"15": "Mizoram",
	"16": "Tripura",
	"17": "Meghalaya",
	"18": "Assam",
	"19": "West Bengal",
	"20": "Jharkhand",
	"21": "Odisha",
	"22": "Chhattisgarh",
	"23": "Madhya Pradesh",
	"24": "Gujarat",
	"26": "Dadra and Nagar Haveli and Daman and Diu",
	"27": "Maharashtra",
	"29": "Karnataka",
	"30": "Goa",
	"31": "Lakshadweep",
	"32": "Kerala",
	"33": "Tamil Nadu",
	"34": "Puducherry",
	"35": "Andaman and Nicobar Islands",
	"36": "Telangana",
	"37": "Andhra Pradesh",
	"38": "Ladakh",
	"97": "Other Territory",
}

// Units are the units of measure offered for products.
var Units = []string{"NOS", "KG", "GM", "LTR", "ML", "MTR", "CM", "SQM", "BOX", "PKT", "PCS"}

// State is one entry of the state code list
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// IsStateCode reports whether code is a known GST state code
func IsStateCode(code string) bool {
	_, ok := States[code]
	return ok
}

// StateList returns the state codes ordered by code
func StateList() []State {
	list := make([]State, 0, len(States))
	for code, name := range States {
		list = append(list, State{Code: code, Name: name})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}
