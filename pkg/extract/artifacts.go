package extract

// BankAccount groups the banking identifiers found in a single message.
// Fields are empty when the corresponding identifier was absent.
type BankAccount struct {
	AccountNumber string `json:"account_number,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	SWIFT         string `json:"swift,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
	IBAN          string `json:"iban,omitempty"`
}

// Empty reports whether no identifier was captured.
func (b BankAccount) Empty() bool {
	return b.AccountNumber == "" && b.IFSC == "" && b.SWIFT == "" && b.RoutingNumber == "" && b.IBAN == ""
}

// Key returns a stable dedupe key for the account.
func (b BankAccount) Key() string {
	return b.AccountNumber + "|" + b.IFSC + "|" + b.SWIFT + "|" + b.RoutingNumber + "|" + b.IBAN
}

// Phone is an extracted phone number with carrier metadata where the
// prefix table could resolve it.
type Phone struct {
	Number     string  `json:"number"`
	Carrier    string  `json:"carrier,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Artifacts holds everything harvested from one or more messages.
// Slices preserve first-seen order so repeated extraction over the same
// transcript yields identical output.
type Artifacts struct {
	UPIIDs        []string      `json:"upi_ids"`
	BankAccounts  []BankAccount `json:"bank_accounts"`
	PhishingLinks []string      `json:"phishing_links"`
	PhoneNumbers  []Phone       `json:"phone_numbers"`
	CryptoWallets []string      `json:"crypto_wallets"`
	Emails        []string      `json:"emails"`
}

// HasArtifacts reports whether any category captured something.
func (a *Artifacts) HasArtifacts() bool {
	return len(a.UPIIDs) > 0 || len(a.BankAccounts) > 0 || len(a.PhishingLinks) > 0 ||
		len(a.PhoneNumbers) > 0 || len(a.CryptoWallets) > 0 || len(a.Emails) > 0
}

// Merge folds other into a, deduplicating per category. Merging the same
// artifacts twice is a no-op.
func (a *Artifacts) Merge(other *Artifacts) {
	if other == nil {
		return
	}
	a.UPIIDs = mergeStrings(a.UPIIDs, other.UPIIDs)
	a.PhishingLinks = mergeStrings(a.PhishingLinks, other.PhishingLinks)
	a.CryptoWallets = mergeStrings(a.CryptoWallets, other.CryptoWallets)
	a.Emails = mergeStrings(a.Emails, other.Emails)

	seenPhones := make(map[string]struct{}, len(a.PhoneNumbers))
	for _, p := range a.PhoneNumbers {
		seenPhones[p.Number] = struct{}{}
	}
	for _, p := range other.PhoneNumbers {
		if _, ok := seenPhones[p.Number]; !ok {
			a.PhoneNumbers = append(a.PhoneNumbers, p)
			seenPhones[p.Number] = struct{}{}
		}
	}

	seenBanks := make(map[string]struct{}, len(a.BankAccounts))
	for _, b := range a.BankAccounts {
		seenBanks[b.Key()] = struct{}{}
	}
	for _, b := range other.BankAccounts {
		if _, ok := seenBanks[b.Key()]; !ok {
			a.BankAccounts = append(a.BankAccounts, b)
			seenBanks[b.Key()] = struct{}{}
		}
	}
}

// Clone returns a deep copy.
func (a *Artifacts) Clone() *Artifacts {
	return &Artifacts{
		UPIIDs:        append([]string(nil), a.UPIIDs...),
		BankAccounts:  append([]BankAccount(nil), a.BankAccounts...),
		PhishingLinks: append([]string(nil), a.PhishingLinks...),
		PhoneNumbers:  append([]Phone(nil), a.PhoneNumbers...),
		CryptoWallets: append([]string(nil), a.CryptoWallets...),
		Emails:        append([]string(nil), a.Emails...),
	}
}

func mergeStrings(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s] = struct{}{}
	}
	for _, s := range src {
		if _, ok := seen[s]; !ok {
			dst = append(dst, s)
			seen[s] = struct{}{}
		}
	}
	return dst
}
