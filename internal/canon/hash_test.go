package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() map[string]any {
	return map[string]any{
		"run_token":   "0191d2a8-0000-7000-8000-000000000000",
		"input":       "CN(=O)=O",
		"output":      "C[N+](=O)[O-]",
		"restarts":    int64(1),
		"converged":   true,
		"rules_fired": []string{"Nitro to N+(O-)=O"},
	}
}

func TestHashRecordDeterminism(t *testing.T) {
	id1, err := HashRecord(DomainRecord, testRecord())
	require.NoError(t, err)

	id2, err := HashRecord(DomainRecord, testRecord())
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "HashRecord must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestHashRecordChangesWithContent(t *testing.T) {
	base := MustHashRecord(DomainRecord, testRecord())

	changed := testRecord()
	changed["restarts"] = int64(2)
	assert.NotEqual(t, base, MustHashRecord(DomainRecord, changed),
		"different restart count should produce a different ID")

	changed = testRecord()
	changed["output"] = "CN(=O)=O"
	assert.NotEqual(t, base, MustHashRecord(DomainRecord, changed),
		"different output should produce a different ID")

	changed = testRecord()
	changed["rules_fired"] = []string{}
	assert.NotEqual(t, base, MustHashRecord(DomainRecord, changed),
		"different firing list should produce a different ID")
}

func TestHashRecordKeyOrderingIrrelevant(t *testing.T) {
	// Go maps do not guarantee iteration order; canonical marshaling
	// must erase insertion order before hashing.
	a := map[string]any{"zebra": 1, "alpha": 2}
	b := map[string]any{"alpha": 2, "zebra": 1}

	assert.Equal(t,
		MustHashRecord(DomainRecord, a),
		MustHashRecord(DomainRecord, b))
}

func TestDomainSeparationPreventsCrossTypeCollision(t *testing.T) {
	// Same payload hashed under different domains must differ.
	payload := testRecord()

	recordHash := MustHashRecord(DomainRecord, payload)
	traceHash := MustHashRecord(DomainTrace, payload)

	assert.NotEqual(t, recordHash, traceHash,
		"different domains must produce different hashes")
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "foo" + 0x00 + "bar" must not collide with "foob" + 0x00 + "ar".
	hash1 := hashWithDomain("foo", []byte("bar"))
	hash2 := hashWithDomain("foob", []byte("ar"))

	assert.NotEqual(t, hash1, hash2,
		"null separator must prevent boundary confusion")
}

func TestHashRecordRejectsUnhashableValue(t *testing.T) {
	_, err := HashRecord(DomainRecord, map[string]any{"score": 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
}

func TestMustHashRecordPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		MustHashRecord(DomainRecord, testRecord())
	})
	assert.Panics(t, func() {
		MustHashRecord(DomainRecord, map[string]any{"score": 0.5})
	})
}

func TestDomainConstants(t *testing.T) {
	assert.Equal(t, "molnorm/record/v1", DomainRecord)
	assert.Equal(t, "molnorm/trace/v1", DomainTrace)
}

func TestHashHexEncoding(t *testing.T) {
	id := MustHashRecord(DomainRecord, testRecord())

	for _, c := range id {
		valid := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		assert.True(t, valid, "hash should only contain hex characters, got: %c", c)
	}
}
