package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/crypto"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/protocol"
	"github.com/pmcgowan3484-a/Accountable-Anon-Fhe/services"
)

func TestInMemoryStoreRoundtrip(t *testing.T) {
	store := services.NewInMemoryStore()

	deltaHandle, err := crypto.NewRandomHandle()
	require.NoError(t, err)
	flagHandle, err := crypto.NewRandomHandle()
	require.NoError(t, err)

	require.NoError(t, store.SaveSubmission(protocol.Submission{
		BatchID:     1,
		Index:       0,
		DeltaHandle: deltaHandle,
		FlagHandle:  flagHandle,
	}))
	require.Len(t, store.Submissions(1), 1)
	require.Empty(t, store.Submissions(2))

	require.NoError(t, store.SaveDecryption(&services.DecryptionRecord{
		RequestID:      "req-1",
		BatchID:        1,
		Deltas:         []int64{4},
		MaliciousFlags: []bool{true},
	}))
	require.NoError(t, store.SaveDecryption(&services.DecryptionRecord{
		RequestID: "req-2",
		BatchID:   1,
		Rejected:  true,
		Reason:    "commitment digest mismatch",
	}))

	records, err := store.LoadDecryptions(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []int64{4}, records[0].Deltas)
	require.True(t, records[1].Rejected)

	empty, err := store.LoadDecryptions(7)
	require.NoError(t, err)
	require.Empty(t, empty)

	require.NoError(t, store.Close())
}

func TestPostgresConnectionString(t *testing.T) {
	config := &services.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "ledger",
		Password: "secret",
		Database: "batches",
	}
	require.Equal(t,
		"host=localhost port=5432 user=ledger password=secret dbname=batches sslmode=disable",
		config.ConnectionString())

	config.SSLMode = "require"
	require.Equal(t,
		"host=localhost port=5432 user=ledger password=secret dbname=batches sslmode=require",
		config.ConnectionString())
}
