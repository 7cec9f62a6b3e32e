package types

// Status is the terminal classification of one evaluation.
type Status string

// Clean statuses. None of these implies a threat.
const (
	StatusValidZip      Status = "VALID_ZIP"
	StatusValidXLSX     Status = "VALID_XLSX"
	StatusValidDOCX     Status = "VALID_DOCX"
	StatusValidPPTX     Status = "VALID_PPTX"
	StatusValidXLS      Status = "VALID_XLS"
	StatusValidDOC      Status = "VALID_DOC"
	StatusValidPPT      Status = "VALID_PPT"
	StatusValidPDF      Status = "VALID_PDF"
	StatusValidODF      Status = "VALID_ODF"
	StatusValid7z       Status = "VALID_7Z"
	StatusUnknownFormat Status = "UNKNOWN_FORMAT"
	StatusNotZip        Status = "NOT_ZIP"
)

// Policy violations. Always flagged, never carry an underlying error.
const (
	StatusEntrySizeLimitExceeded  Status = "ENTRY_SIZE_LIMIT_EXCEEDED"
	StatusExcessiveRatio          Status = "EXCESSIVE_COMPRESSION_RATIO"
	StatusTotalSizeLimitExceeded  Status = "TOTAL_SIZE_LIMIT_EXCEEDED"
	StatusEntryCountLimitExceeded Status = "ENTRY_COUNT_LIMIT_EXCEEDED"
	StatusMaxDepthExceeded        Status = "MAX_DEPTH_EXCEEDED"
	StatusNestedEntryTooLarge     Status = "NESTED_ENTRY_TOO_LARGE"
	StatusNestedEntryOverflow     Status = "NESTED_ENTRY_EXTRACTION_OVERFLOW"
)

// Parser and I/O failures, classified at the boundary where they occur.
const (
	StatusIOError         Status = "IO_ERROR"
	StatusFormatMismatch  Status = "FORMAT_MISMATCH"
	StatusPossibleZipBomb Status = "POSSIBLE_ZIP_BOMB"
	StatusProcessingError Status = "PROCESSING_ERROR"
)

var cleanStatuses = map[Status]bool{
	StatusValidZip:        true,
	StatusValidXLSX:       true,
	StatusValidDOCX:       true,
	StatusValidPPTX:       true,
	StatusValidXLS:        true,
	StatusValidDOC:        true,
	StatusValidPPT:        true,
	StatusValidPDF:        true,
	StatusValidODF:        true,
	StatusValid7z:         true,
	StatusUnknownFormat:   true,
	StatusNotZip:          true,
	StatusProcessingError: true,
}

// IsClean reports whether s is a non-threat classification.
func (s Status) IsClean() bool {
	return cleanStatuses[s]
}
