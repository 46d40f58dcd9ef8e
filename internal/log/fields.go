package log

// Common field names for structured logging. snake_case keys, shared with
// the collaborators that scrape these logs.
const (
	FieldComponent    = "component"
	FieldOperation    = "operation"
	FieldError        = "error"
	FieldBackend      = "backend"
	FieldProjectID    = "project_id"
	FieldCategoryID   = "category_id"
	FieldEntryID      = "entry_id"
	FieldAttachmentID = "attachment_id"
	FieldAmountCents  = "amount_cents"
	FieldEntryDate    = "entry_date"
	FieldDescription  = "description"
	FieldCount        = "count"
	FieldTable        = "table"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentStorage = "storage"
	ComponentSchema  = "schema"
	ComponentSeed    = "seed"
	ComponentReports = "reports"
	ComponentAuth    = "auth"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names.
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpEnsure  = "ensure"
	OpRebuild = "rebuild"
	OpSeed    = "seed"
	OpOpen    = "open"
)
