package extract

import (
	"reflect"
	"testing"

	"github.com/baitline/baitline/pkg/lexicon"
)

func newTestExtractor() *Extractor {
	return New(lexicon.DefaultBundle())
}

func TestExtractUPI(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare provider handle",
			text: "Send money to support@paytm right away",
			want: []string{"support@paytm"},
		},
		{
			name: "uppercase normalized",
			text: "My UPI is Raj.Kumar@YBL",
			want: []string{"raj.kumar@ybl"},
		},
		{
			name: "email domain excluded",
			text: "write to help@gmail.com for the refund",
			want: nil,
		},
		{
			name: "single char handle rejected",
			text: "use a@paytm",
			want: nil,
		},
		{
			name: "deduplicated",
			text: "pay scammer@upi or scammer@upi today",
			want: []string{"scammer@upi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).UPIIDs
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UPIIDs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractBankDetails(t *testing.T) {
	e := newTestExtractor()

	t.Run("account with ifsc", func(t *testing.T) {
		a := e.Extract("Transfer $500 to account number 1234567890123, IFSC code HDFC0001234")
		if len(a.BankAccounts) != 1 {
			t.Fatalf("BankAccounts = %v, want 1 entry", a.BankAccounts)
		}
		acct := a.BankAccounts[0]
		if acct.AccountNumber != "1234567890123" {
			t.Errorf("AccountNumber = %q, want 1234567890123", acct.AccountNumber)
		}
		if acct.IFSC != "HDFC0001234" {
			t.Errorf("IFSC = %q, want HDFC0001234", acct.IFSC)
		}
	})

	t.Run("no banking context means no account", func(t *testing.T) {
		a := e.Extract("the winning code is 123456789 for you")
		if len(a.BankAccounts) != 0 {
			t.Errorf("BankAccounts = %v, want none without banking context", a.BankAccounts)
		}
	})

	t.Run("ten digit mobile never becomes an account", func(t *testing.T) {
		a := e.Extract("transfer to account 9876543210 today")
		if len(a.BankAccounts) != 0 {
			t.Errorf("BankAccounts = %v, want none for a valid mobile", a.BankAccounts)
		}
		if len(a.PhoneNumbers) != 1 || a.PhoneNumbers[0].Number != "+919876543210" {
			t.Errorf("PhoneNumbers = %v, want the mobile routed to phones", a.PhoneNumbers)
		}
	})

	t.Run("placeholder accounts rejected", func(t *testing.T) {
		a := e.Extract("send to account 000011112222")
		if len(a.BankAccounts) != 0 {
			t.Errorf("BankAccounts = %v, want placeholder rejected", a.BankAccounts)
		}
		a = e.Extract("send to account 111111111")
		if len(a.BankAccounts) != 0 {
			t.Errorf("BankAccounts = %v, want repeated digits rejected", a.BankAccounts)
		}
	})

	t.Run("routing number", func(t *testing.T) {
		a := e.Extract("wire it, routing 021000021")
		if len(a.BankAccounts) != 1 || a.BankAccounts[0].RoutingNumber != "021000021" {
			t.Errorf("BankAccounts = %v, want routing 021000021", a.BankAccounts)
		}
	})
}

func TestPhoneBankMutualExclusion(t *testing.T) {
	e := newTestExtractor()

	t.Run("phone context claims the token", func(t *testing.T) {
		a := e.Extract("Transfer to my account number 6123456789")
		if len(a.PhoneNumbers) != 1 || a.PhoneNumbers[0].Number != "+916123456789" {
			t.Errorf("PhoneNumbers = %v, want +916123456789", a.PhoneNumbers)
		}
		if len(a.BankAccounts) != 0 {
			t.Errorf("BankAccounts = %v, want none once the phone claimed the token", a.BankAccounts)
		}
	})

	t.Run("bank context alone keeps the token", func(t *testing.T) {
		a := e.Extract("send $500 to account 5123456789 today")
		if len(a.BankAccounts) != 1 || a.BankAccounts[0].AccountNumber != "5123456789" {
			t.Errorf("BankAccounts = %v, want 5123456789", a.BankAccounts)
		}
		if len(a.PhoneNumbers) != 0 {
			t.Errorf("PhoneNumbers = %v, want none without phone context", a.PhoneNumbers)
		}
	})

	t.Run("both contexts resolve to phone only", func(t *testing.T) {
		a := e.Extract("call me about your account 8800123456 transfer")
		if len(a.PhoneNumbers) != 1 {
			t.Fatalf("PhoneNumbers = %v, want one", a.PhoneNumbers)
		}
		if len(a.BankAccounts) != 0 {
			t.Errorf("BankAccounts = %v, want the token in exactly one category", a.BankAccounts)
		}
	})
}

func TestExtractURLs(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "protocol variant preferred",
			text: "visit https://fake-bank.com and fake-bank.com now",
			want: []string{"https://fake-bank.com"},
		},
		{
			name: "trailing punctuation trimmed",
			text: "go to www.scam-site.xyz.",
			want: []string{"www.scam-site.xyz"},
		},
		{
			name: "email domain not a link",
			text: "mail me at fraud@badsite.com please",
			want: nil,
		},
		{
			name: "bare domain with path",
			text: "claim at verify-kyc.in/refund today",
			want: []string{"verify-kyc.in/refund"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).PhishingLinks
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PhishingLinks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractPhones(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name           string
		text           string
		wantNumber     string
		wantConfidence float64
	}{
		{
			name:           "known prefix gets country code and high confidence",
			text:           "call me at 7011223344",
			wantNumber:     "+917011223344",
			wantConfidence: 0.99,
		},
		{
			name:           "plus 91 format deduplicates with bare form",
			text:           "+91 9876543210",
			wantNumber:     "+919876543210",
			wantConfidence: 0.99,
		},
		{
			name:           "unknown prefix valid first digit",
			text:           "reach me on 6123456789",
			wantNumber:     "+916123456789",
			wantConfidence: 0.7,
		},
		{
			name:           "us format",
			text:           "call 555-123-4567",
			wantNumber:     "5551234567",
			wantConfidence: 0.95,
		},
		{
			name:           "international format",
			text:           "whatsapp +44 79111234",
			wantNumber:     "+4479111234",
			wantConfidence: 0.95,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).PhoneNumbers
			if len(got) != 1 {
				t.Fatalf("PhoneNumbers = %v, want exactly one", got)
			}
			if got[0].Number != tt.wantNumber {
				t.Errorf("Number = %q, want %q", got[0].Number, tt.wantNumber)
			}
			if got[0].Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got[0].Confidence, tt.wantConfidence)
			}
		})
	}

	t.Run("international embedded in word skipped", func(t *testing.T) {
		got := e.Extract("ref id x+911234567890").PhoneNumbers
		if len(got) != 0 {
			t.Errorf("PhoneNumbers = %v, want boundary check to reject", got)
		}
	})
}

func TestExtractCrypto(t *testing.T) {
	e := newTestExtractor()

	a := e.Extract("pay 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa or 0x1234567890abcdef1234567890abcdef12345678")
	want := []string{
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		"0x1234567890abcdef1234567890abcdef12345678",
	}
	if !reflect.DeepEqual(a.CryptoWallets, want) {
		t.Errorf("CryptoWallets = %v, want %v", a.CryptoWallets, want)
	}
}

func TestExtractEmails(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain email",
			text: "contact refund-desk@gmail.com now",
			want: []string{"refund-desk@gmail.com"},
		},
		{
			name: "upi handle is not an email",
			text: "send to scammer@ybl please",
			want: nil,
		},
		{
			name: "lowercased and deduplicated",
			text: "Fraud@Site.com or fraud@site.com",
			want: []string{"fraud@site.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).Emails
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Emails = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScamDetection(t *testing.T) {
	e := newTestExtractor()

	if !e.ScamDetected("Your account is blocked, verify immediately") {
		t.Error("expected scam indicators to be detected")
	}
	if e.ScamDetected("see you at dinner tomorrow") {
		t.Error("benign text flagged as scam")
	}

	kws := e.SuspiciousKeywords("Your account is blocked, verify immediately")
	if len(kws) < 3 {
		t.Errorf("SuspiciousKeywords = %v, want several hits", kws)
	}
	for i := 1; i < len(kws); i++ {
		if kws[i-1] >= kws[i] {
			t.Errorf("SuspiciousKeywords not sorted: %v", kws)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := newTestExtractor()
	text := "pay scammer@upi, account 1234567890123 via transfer, visit https://fake-bank.com or call 7011223344, mail fraud@gmail.com"

	first := e.Extract(text)
	for i := 0; i < 10; i++ {
		if got := e.Extract(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestArtifactsMergeIdempotent(t *testing.T) {
	e := newTestExtractor()

	total := &Artifacts{}
	a := e.Extract("send to scammer@upi or call 7011223344")
	b := e.Extract("visit https://fake-bank.com, again scammer@upi")

	total.Merge(a)
	total.Merge(b)
	total.Merge(b)

	if len(total.UPIIDs) != 1 {
		t.Errorf("UPIIDs = %v, want deduplicated to one", total.UPIIDs)
	}
	if len(total.PhishingLinks) != 1 {
		t.Errorf("PhishingLinks = %v, want one", total.PhishingLinks)
	}
	if len(total.PhoneNumbers) != 1 {
		t.Errorf("PhoneNumbers = %v, want one", total.PhoneNumbers)
	}
	if !total.HasArtifacts() {
		t.Error("HasArtifacts = false after merges")
	}
}
