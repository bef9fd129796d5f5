package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table     string
	ID        string
	UserID    string
	Action    string
	IPAddress string
	CreatedAt string
}

var SystemAuditLog = SystemAuditLogTable{
	Table:     "system.auditlog",
	ID:        "id",
	UserID:    "userid",
	Action:    "action",
	IPAddress: "ipaddress",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t SystemAuditLogTable) Columns() []string {
	return []string{t.ID, t.UserID, t.Action, t.IPAddress, t.CreatedAt}
}
