package aggregates

// WriteTxOwnership says which side opens the write transaction.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: write methods begin and commit their own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
	// WriteTxOwnedByCaller: methods run inside a transaction handed in through dbctx.
	WriteTxOwnedByCaller WriteTxOwnership = "caller_owned"
)

type ReadPolicy string

const (
	// ReadPolicyInvariantScoped limits reads to what a write needs to check its invariants.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries leaves listing and search on the query repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

// Aggregate is implemented by every write boundary in the catalog.
type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// RequiresCallerTx reports whether methods fail without dbctx.Context.Tx.
func (c Contract) RequiresCallerTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByCaller
}
