package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFiltersParamsOmitEmptyValues(t *testing.T) {
	f := Filters{Status: "published", Search: "algebra"}

	params := f.Params()
	require.Len(t, params, 2)
	require.Equal(t, Param{"status", "published"}, params[0])
	require.Equal(t, Param{"search", "algebra"}, params[1])
}

func TestFiltersParamsPreserveSchemaOrder(t *testing.T) {
	// Populated out of schema order on purpose.
	f := Filters{
		DateTo:   "2025-02-01",
		Search:   "fractions",
		Status:   "expired",
		Teacher:  "7",
		DateFrom: "2025-01-01",
		Subject:  "3",
		Class:    "12",
	}

	keys := make([]string, 0)
	seen := map[string]int{}
	for _, p := range f.Params() {
		keys = append(keys, p.Key)
		seen[p.Key]++
	}

	require.Equal(t, []string{"status", "class", "subject", "teacher", "search", "dateFrom", "dateTo"}, keys)
	for key, count := range seen {
		require.Equal(t, 1, count, "key %s appears more than once", key)
	}
}

func TestFiltersEncodeDeterministic(t *testing.T) {
	f := Filters{Status: "published", Class: "12", Search: "chapter 5"}

	encoded := f.Encode()
	require.Equal(t, "status=published&class=12&search=chapter+5", encoded)
	require.Equal(t, encoded, f.Encode())
}

func TestFiltersEncodeEmpty(t *testing.T) {
	require.Equal(t, "", Filters{}.Encode())
	require.Equal(t, "", Filters{Status: "   "}.Encode())
}
