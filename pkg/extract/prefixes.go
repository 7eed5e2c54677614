package extract

// Offline validator for Indian mobile numbers using the TRAI prefix plan.
// Keeps 10-digit mobiles out of the bank-account bucket without any
// network lookups.

// Curated subset of ~200 active 4-digit Mobile Series Operator prefixes
// (TRAI National Numbering Plan plus public carrier allocations).
var indianMobilePrefixes = map[string]struct{}{
	// Airtel
	"9910": {}, "9911": {}, "9650": {}, "9654": {}, "9958": {}, "9990": {}, "9999": {}, "9968": {},
	"8826": {}, "8800": {}, "7011": {}, "7015": {}, "7065": {}, "7210": {}, "7217": {}, "7290": {},
	"7827": {}, "7838": {}, "8860": {}, "8920": {}, "9555": {}, "9582": {}, "9717": {}, "9718": {},

	// Vodafone-Idea (Vi)
	"9812": {}, "9815": {}, "9816": {}, "9817": {}, "9818": {}, "9819": {}, "9820": {}, "9821": {},
	"9867": {}, "9868": {}, "9869": {}, "9920": {}, "9921": {}, "9922": {}, "9923": {}, "9924": {},
	"9925": {}, "9926": {}, "9927": {}, "9928": {}, "9929": {}, "9930": {}, "9931": {}, "9960": {},
	"9961": {}, "9962": {}, "9963": {}, "9964": {}, "9965": {}, "9966": {}, "9967": {}, "9969": {},
	"7410": {}, "7411": {}, "7412": {}, "7567": {}, "7568": {}, "7737": {}, "8000": {}, "8291": {},

	// Jio
	"8801": {}, "8802": {}, "6299": {}, "6300": {}, "6301": {}, "7400": {}, "7401": {},
	"7500": {}, "7501": {}, "7700": {}, "7701": {}, "7977": {}, "8900": {}, "8901": {}, "8902": {},
	"8903": {}, "8904": {}, "9115": {}, "6350": {}, "7000": {}, "7050": {}, "7051": {}, "8850": {},

	// BSNL
	"9400": {}, "9401": {}, "9402": {}, "9403": {}, "9404": {}, "9405": {}, "9406": {}, "9407": {},
	"9408": {}, "9409": {}, "9410": {}, "9411": {}, "9412": {}, "9413": {}, "9414": {}, "9415": {},
	"9416": {}, "9417": {}, "9418": {}, "9419": {}, "9420": {}, "9421": {}, "9422": {}, "9423": {},
	"9424": {}, "9425": {}, "9426": {}, "9427": {}, "9428": {}, "9429": {}, "7896": {}, "8004": {},

	// MTNL
	"9810": {}, "9811": {},

	// Other operators (legacy Aircel, regional carriers)
	"9012": {}, "9014": {}, "9016": {}, "9040": {}, "9041": {}, "9042": {}, "9043": {}, "9044": {},
	"9045": {}, "9046": {}, "9047": {}, "9048": {}, "9049": {}, "9876": {}, "9877": {}, "9878": {},
	"9879": {}, "9880": {}, "9881": {}, "9882": {}, "9883": {}, "9884": {}, "9885": {}, "9886": {},
	"9887": {}, "9888": {}, "9889": {}, "9890": {}, "9891": {}, "9892": {}, "9893": {}, "9894": {},
	"9895": {}, "9896": {}, "9897": {}, "9898": {}, "9899": {}, "9900": {}, "9901": {}, "9902": {},
	"7200": {}, "7201": {}, "7202": {}, "7800": {}, "8100": {}, "8200": {}, "8300": {}, "8400": {},
	"8500": {}, "8600": {}, "8700": {}, "9000": {}, "9001": {}, "9100": {}, "9200": {}, "9300": {},

	// Extended coverage
	"6000": {}, "6200": {}, "6201": {}, "6280": {}, "6281": {}, "7008": {}, "7600": {}, "8010": {},
}

// Carrier mapping for forensic metadata. Prefixes absent here fall back
// to "Other".
var carrierByPrefix = map[string]string{
	"9910": "Airtel", "9911": "Airtel", "9650": "Airtel", "9654": "Airtel",
	"9958": "Airtel", "9990": "Airtel", "9999": "Airtel", "8826": "Airtel",
	"8800": "Jio", "8801": "Jio", "8802": "Jio", "6299": "Jio",
	"6300": "Jio", "7400": "Jio", "7500": "Jio", "7700": "Jio",
	"9812": "Vi", "9815": "Vi", "9816": "Vi", "9867": "Vi",
	"9400": "BSNL", "9401": "BSNL", "9402": "BSNL", "9403": "BSNL",
	"9810": "MTNL", "9811": "MTNL",
}

// MobileValidation is the result of a prefix-table lookup.
type MobileValidation struct {
	IsMobile   bool    `json:"is_mobile"`
	Carrier    string  `json:"carrier,omitempty"`
	Confidence float64 `json:"confidence"`
	Prefix     string  `json:"prefix"`
	Reason     string  `json:"reason"`
}

// Validation reasons.
const (
	ReasonLengthInvalid     = "LENGTH_INVALID"
	ReasonFirstDigitInvalid = "FIRST_DIGIT_INVALID"
	ReasonPrefixMatch       = "TRAI_PREFIX_MATCH"
	ReasonPrefixUnknown     = "PREFIX_NOT_IN_DATASET"
)

// ValidateMobile checks whether a normalized 10-digit string is an Indian
// mobile number. Unknown prefixes with a valid 6/7/8/9 first digit are
// rejected conservatively at low confidence to keep false positives out
// of the phone bucket.
func ValidateMobile(number string) MobileValidation {
	if len(number) != 10 || !allDigits(number) {
		return MobileValidation{Reason: ReasonLengthInvalid}
	}

	// First digit must be 6/7/8/9 per TRAI
	if number[0] < '6' || number[0] > '9' {
		return MobileValidation{Prefix: number[:4], Reason: ReasonFirstDigitInvalid}
	}

	prefix := number[:4]
	if _, ok := indianMobilePrefixes[prefix]; ok {
		carrier := carrierByPrefix[prefix]
		if carrier == "" {
			carrier = "Other"
		}
		return MobileValidation{
			IsMobile:   true,
			Carrier:    carrier,
			Confidence: 0.99,
			Prefix:     prefix,
			Reason:     ReasonPrefixMatch,
		}
	}

	return MobileValidation{
		Confidence: 0.4,
		Prefix:     prefix,
		Reason:     ReasonPrefixUnknown,
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
