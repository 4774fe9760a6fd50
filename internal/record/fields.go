package record

// Field names a Record attribute. The set is closed: Value and Apply switch
// over the declared fields and reject anything else, so callers can never
// reach into a record with an arbitrary string.
type Field string

const (
	FieldID               Field = "id"
	FieldAmount           Field = "amount"
	FieldCurrency         Field = "currency"
	FieldDate             Field = "date"
	FieldCreatedAt        Field = "createdAt"
	FieldUpdatedAt        Field = "updatedAt"
	FieldImportedAt       Field = "importedAt"
	FieldCategory         Field = "category"
	FieldSubcategory      Field = "subcategory"
	FieldCustomCategory   Field = "customCategory"
	FieldTags             Field = "tags"
	FieldLabels           Field = "labels"
	FieldMerchant         Field = "merchant"
	FieldPaymentMethod    Field = "paymentMethod"
	FieldReferenceNumber  Field = "referenceNumber"
	FieldAccountID        Field = "accountId"
	FieldNotes            Field = "notes"
	FieldTaxCategory      Field = "taxCategory"
	FieldTaxRate          Field = "taxRate"
	FieldExchangeRate     Field = "exchangeRate"
	FieldOriginalAmount   Field = "originalAmount"
	FieldOriginalCurrency Field = "originalCurrency"
	FieldStatus           Field = "status"
	FieldPending          Field = "pending"

	FieldIsManual             Field = "isManual"
	FieldIsVerified           Field = "isVerified"
	FieldIsLocked             Field = "isLocked"
	FieldIsRecurring          Field = "isRecurring"
	FieldIsTransfer           Field = "isTransfer"
	FieldIsRefund             Field = "isRefund"
	FieldIsSubscription       Field = "isSubscription"
	FieldIsTaxDeductible      Field = "isTaxDeductible"
	FieldIsBusinessExpense    Field = "isBusinessExpense"
	FieldIsReimbursable       Field = "isReimbursable"
	FieldIsReviewed           Field = "isReviewed"
	FieldIsExcludedFromTotals Field = "isExcludedFromTotals"
	FieldIsSplit              Field = "isSplit"
	FieldIsShared             Field = "isShared"
	FieldIsArchived           Field = "isArchived"
	FieldIsCleared            Field = "isCleared"
	FieldIsEstimated          Field = "isEstimated"
	FieldIsForeign            Field = "isForeign"
	FieldIsInterest           Field = "isInterest"
	FieldIsFee                Field = "isFee"
)

// Kind classifies a field for coercion, diffing, and filtering.
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindDate
	KindAmount
	KindTags
	KindStatus
)

var fieldKinds = map[Field]Kind{
	FieldID:               KindText,
	FieldAmount:           KindAmount,
	FieldCurrency:         KindText,
	FieldDate:             KindDate,
	FieldCreatedAt:        KindDate,
	FieldUpdatedAt:        KindDate,
	FieldImportedAt:       KindDate,
	FieldCategory:         KindText,
	FieldSubcategory:      KindText,
	FieldCustomCategory:   KindText,
	FieldTags:             KindTags,
	FieldLabels:           KindTags,
	FieldMerchant:         KindText,
	FieldPaymentMethod:    KindText,
	FieldReferenceNumber:  KindText,
	FieldAccountID:        KindText,
	FieldNotes:            KindText,
	FieldTaxCategory:      KindText,
	FieldTaxRate:          KindAmount,
	FieldExchangeRate:     KindAmount,
	FieldOriginalAmount:   KindAmount,
	FieldOriginalCurrency: KindText,
	FieldStatus:           KindStatus,
	FieldPending:          KindBool,
}

func init() {
	for _, f := range boolFlags {
		fieldKinds[f] = KindBool
	}
}

var boolFlags = []Field{
	FieldIsManual, FieldIsVerified, FieldIsLocked, FieldIsRecurring,
	FieldIsTransfer, FieldIsRefund, FieldIsSubscription, FieldIsTaxDeductible,
	FieldIsBusinessExpense, FieldIsReimbursable, FieldIsReviewed,
	FieldIsExcludedFromTotals, FieldIsSplit, FieldIsShared, FieldIsArchived,
	FieldIsCleared, FieldIsEstimated, FieldIsForeign, FieldIsInterest, FieldIsFee,
}

// BoolFlags returns the declared boolean flag fields in display order.
func BoolFlags() []Field {
	out := make([]Field, len(boolFlags))
	copy(out, boolFlags)
	return out
}

// Known reports whether f is a declared field.
func Known(f Field) bool {
	_, ok := fieldKinds[f]
	return ok
}

// KindOf returns the kind of a declared field. Unknown fields are KindText;
// callers that care use Known first.
func KindOf(f Field) Kind {
	return fieldKinds[f]
}

// editableFields is the fixed allow-list of fields the edit buffer may touch.
// Identity and server-owned timestamps are deliberately absent, as is the
// derived pending projection (it moves only with status).
var editableFields = map[Field]bool{
	FieldAmount:            true,
	FieldCurrency:          true,
	FieldDate:              true,
	FieldCategory:          true,
	FieldSubcategory:       true,
	FieldCustomCategory:    true,
	FieldTags:              true,
	FieldLabels:            true,
	FieldMerchant:          true,
	FieldPaymentMethod:     true,
	FieldReferenceNumber:   true,
	FieldNotes:             true,
	FieldTaxCategory:       true,
	FieldStatus:            true,
	FieldIsManual:          true,
	FieldIsVerified:        true,
	FieldIsRecurring:       true,
	FieldIsTransfer:        true,
	FieldIsRefund:          true,
	FieldIsSubscription:    true,
	FieldIsTaxDeductible:   true,
	FieldIsBusinessExpense: true,
	FieldIsReimbursable:    true,
	FieldIsReviewed:        true,
	FieldIsExcludedFromTotals: true,
	FieldIsShared:          true,
	FieldIsEstimated:       true,
}

// Editable reports whether f is on the editable allow-list. Lock state and
// collaborator availability are the edit buffer's concern.
func Editable(f Field) bool {
	return editableFields[f]
}

// DefaultColumns is the default column order for the table view.
func DefaultColumns() []Field {
	return []Field{
		FieldDate, FieldMerchant, FieldAmount, FieldCategory,
		FieldStatus, FieldTags, FieldNotes, FieldAccountID,
	}
}
