package types

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoiceSettled = "invoice.settled"
)
