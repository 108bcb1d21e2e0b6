package enum

// DocumentType identifies a numbered document family. Each family has its own
// numbering partition per financial year.
type DocumentType int

const (
	DocumentTypeInvoice    DocumentType = 0
	DocumentTypeCreditNote DocumentType = 1
	DocumentTypeQuotation  DocumentType = 2
)

func (t DocumentType) String() string {
	names := [...]string{"invoice", "credit_note", "quotation"}
	if int(t) < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}
