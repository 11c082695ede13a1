package v1alpha1

// TestFile is the on-disk layout of one test-case file. SqlInterleavings and
// Interleaving are parallel: entry i of each describes test case i.
type TestFile struct {
	// SqlInterleavings holds the literal statements of every test case
	SqlInterleavings [][]SqlWithTransaction `json:"SqlInterleavings" yaml:"SqlInterleavings"`
	// Interleaving holds the semantic operations of every test case
	Interleaving [][]OperationWithTransaction `json:"Interleaving" yaml:"Interleaving"`
}

// SqlWithTransaction is a statement bound to the transaction that issues it
type SqlWithTransaction struct {
	// SqlCommand is the literal statement text
	SqlCommand string `json:"SqlCommand" yaml:"SqlCommand"`
	// TransactionId groups statements issued on the same session
	TransactionId string `json:"TransactionId" yaml:"TransactionId"`
}

// Operation is the abstract intent a statement is believed to implement
type Operation struct {
	// Name of the operation, e.g. "Put" or "Get"
	Name string `json:"Name" yaml:"Name"`
	// Parameters are passed through untouched
	Parameters []interface{} `json:"Parameters" yaml:"Parameters"`
}

// OperationWithTransaction binds an Operation to a transaction
type OperationWithTransaction struct {
	Operation     Operation `json:"Operation" yaml:"Operation"`
	TransactionId string    `json:"TransactionId" yaml:"TransactionId"`
}

// TestResult is one entry of a replayed history
type TestResult struct {
	// TestRan is the statement (or Begin/Commit marker) that produced the result
	TestRan SqlWithTransaction `json:"TestRan"`
	// Result is "Success", the row dump of a query, or "Fail\n" plus the error
	Result string `json:"Result"`
	// OperationRan is present when the statement carried a semantic operation
	OperationRan *OperationWithTransaction `json:"OperationRan,omitempty"`
}

// ReplayResponse is returned by the replay endpoint
type ReplayResponse struct {
	// RunID identifies the replay in logs
	RunID string `json:"runId"`
	// Histories holds one history per test case, in file order
	Histories [][]TestResult `json:"histories"`
	// Errors lists the test cases that could not be replayed. Their
	// histories hold one failed Begin per transaction.
	Errors []string `json:"errors,omitempty"`
}
