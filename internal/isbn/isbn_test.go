package isbn

import (
	"testing"

	"bookpublish/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate13(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"9780306406157", true},
		{"978-0-306-40615-7", true},
		{"978 0 306 40615 7", true},
		{"9780306460157", false}, // adjacent transposition
		{"9780306406158", false},
		{"978030640615", false},
		{"978030640615X", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate13(tt.code))
		})
	}
}

func TestValidate13_RejectsAdjacentTranspositions(t *testing.T) {
	const valid = "9780306406157"
	for i := 0; i < len(valid)-1; i++ {
		b := []byte(valid)
		if b[i] == b[i+1] {
			continue
		}
		b[i], b[i+1] = b[i+1], b[i]
		// Swapping digits that differ by 5 is invisible to the 1-3 weighting.
		diff := int(b[i]) - int(b[i+1])
		if diff == 5 || diff == -5 {
			continue
		}
		assert.False(t, Validate13(string(b)), "transposition at %d: %s", i, b)
	}
}

func TestValidate10(t *testing.T) {
	assert.True(t, Validate10("0306406152"))
	assert.True(t, Validate10("0-306-40615-2"))
	assert.True(t, Validate10("080442957X"))
	assert.True(t, Validate10("080442957x"))
	assert.False(t, Validate10("0306406153"))
	assert.False(t, Validate10("X306406152"))
	assert.False(t, Validate10("030640615"))
}

func TestConvert10To13(t *testing.T) {
	got, err := Convert10To13("0-306-40615-2")
	require.NoError(t, err)
	assert.Equal(t, "9780306406157", got)

	_, err = Convert10To13("0306406153")
	var invalid *entity.InvalidISBNError
	require.ErrorAs(t, err, &invalid)
	assert.ErrorIs(t, err, entity.ErrInvalidISBN)
}

func TestConvert10To13_RoundTrip(t *testing.T) {
	for n := 0; n < 100000; n += 97 {
		body := "0306" + pad5(n)
		isbn10 := body + string(CheckDigit10(body))
		require.True(t, Validate10(isbn10))

		isbn13, err := Convert10To13(isbn10)
		require.NoError(t, err)
		require.True(t, Validate13(isbn13))

		back, err := Convert13To10(isbn13)
		require.NoError(t, err)
		require.Equal(t, isbn10, back)
	}
}

func pad5(n int) string {
	s := []byte("00000")
	for i := 4; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}

func TestConvert13To10_Rejects979(t *testing.T) {
	body := "979100000001"
	_, err := Convert13To10(body + string(CheckDigit13(body)))
	assert.ErrorIs(t, err, entity.ErrInvalidISBN)
}

func TestToISBN13(t *testing.T) {
	got, err := ToISBN13("0306406152")
	require.NoError(t, err)
	assert.Equal(t, "9780306406157", got)

	got, err = ToISBN13("978-0-306-40615-7")
	require.NoError(t, err)
	assert.Equal(t, "9780306406157", got)

	_, err = ToISBN13("12345")
	assert.ErrorIs(t, err, entity.ErrInvalidISBN)
}

func TestHyphenate(t *testing.T) {
	assert.Equal(t, "978-0-306-40615-7", Hyphenate("9780306406157"))
	assert.Equal(t, "978-0-306-40615-7", Hyphenate("0306406152"))
	assert.Equal(t, "978-1-73610-001-1", Hyphenate("9781736100011"))
	assert.Equal(t, "12345", Hyphenate("12-345"))
}
