package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogContracts(t *testing.T) {
	cases := []struct {
		contract  Contract
		aggregate bool
		caller    bool
		reads     ReadPolicy
	}{
		{contract: TaxonomyResolverContract, caller: true, reads: ReadPolicyInvariantScoped},
		{contract: ResourceAggregateContract, aggregate: true, reads: ReadPolicyTableRepoQueries},
	}
	for _, tc := range cases {
		t.Run(tc.contract.Name, func(t *testing.T) {
			assert.Equal(t, tc.aggregate, tc.contract.RequiresAggregateOwnedTx())
			assert.Equal(t, tc.caller, tc.contract.RequiresCallerTx())
			assert.Equal(t, tc.reads, tc.contract.ReadPolicy)
			assert.NotEmpty(t, tc.contract.Notes)
		})
	}
}
