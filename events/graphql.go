package events

import "time"

// GraphQLStart is emitted before a query runs through the execution pipeline.
type GraphQLStart struct {
	Query         string
	OperationName string
}

// GraphQLFinish is emitted after the pipeline produced an outcome.
// Outcome is one of "schema_invalid", "document_invalid", "server_error" or
// "executed". OperationType is empty when the document never parsed.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Outcome       string
	Errors        []error
	Duration      time.Duration
}
