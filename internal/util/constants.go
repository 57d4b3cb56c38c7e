package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
	ExportPDF  = "pdf"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderTimeZone = "X-Time-Zone"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200
)
