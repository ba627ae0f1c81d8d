package tokenizer

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string, cfg Config) []*RawRow {
	t.Helper()
	tk := New(strings.NewReader(input), cfg)
	var rows []*RawRow
	for {
		row, err := tk.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func texts(row *RawRow) []string {
	out := make([]string, len(row.Tokens))
	for i, tok := range row.Tokens {
		out[i] = tok.Text
	}
	return out
}

func csvConfig() Config {
	return Config{ColumnDelimiters: []string{","}, Quote: `"`, Escape: `\`}
}

func TestBasicRows(t *testing.T) {
	rows := readAll(t, "a,1,2.5\nb,,3.0\n", csvConfig())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "1", "2.5"}, texts(rows[0]))
	assert.Equal(t, []string{"b", "", "3.0"}, texts(rows[1]))
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 2, rows[1].Line)
	assert.Equal(t, ",", rows[0].Tokens[0].Delimiter)
	assert.Equal(t, "", rows[0].Tokens[2].Delimiter)
}

func TestLastRowWithoutNewline(t *testing.T) {
	rows := readAll(t, "a,b\nc,d", csvConfig())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"c", "d"}, texts(rows[1]))
}

func TestCRLF(t *testing.T) {
	rows := readAll(t, "a,b\r\nc,d\r\n", csvConfig())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, texts(rows[0]))
	assert.Equal(t, 2, rows[1].Line)
}

func TestLongestDelimiterWins(t *testing.T) {
	cfg := Config{ColumnDelimiters: []string{":", "::"}}
	rows := readAll(t, "a::b:c\n", cfg)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b", "c"}, texts(rows[0]))
	assert.Equal(t, "::", rows[0].Tokens[0].Delimiter)
	assert.Equal(t, ":", rows[0].Tokens[1].Delimiter)
}

func TestRowDelimiterBeatsColumnDelimiter(t *testing.T) {
	cfg := Config{ColumnDelimiters: []string{";", "|"}, RowDelimiter: "|"}
	rows := readAll(t, "a;b|c;d|", cfg)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, texts(rows[0]))
	assert.Equal(t, []string{"c", "d"}, texts(rows[1]))
}

func TestQuotedFields(t *testing.T) {
	rows := readAll(t, "\"a,b\",\"line1\nline2\",\"say \\\"hi\\\"\"\nnext,row,x\n", csvConfig())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a,b", "line1\nline2", `say "hi"`}, texts(rows[0]))
	for _, tok := range rows[0].Tokens {
		assert.True(t, tok.Quoted)
	}
	assert.Equal(t, 3, rows[1].Line)
}

func TestDoubledQuoteEscape(t *testing.T) {
	cfg := Config{ColumnDelimiters: []string{","}, Quote: `"`, Escape: `"`}
	rows := readAll(t, `"he said ""no""",x`+"\n", cfg)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{`he said "no"`, "x"}, texts(rows[0]))
}

func TestQuotedEmptyIsQuoted(t *testing.T) {
	rows := readAll(t, `a,"",`+"\n", csvConfig())
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Tokens, 3)
	assert.True(t, rows[0].Tokens[1].Quoted)
	assert.False(t, rows[0].Tokens[2].Quoted)
	assert.Equal(t, "", rows[0].Tokens[2].Text)
}

func TestWhitespaceTrimming(t *testing.T) {
	rows := readAll(t, "  a  , \"  b \" ,c\t\n", csvConfig())
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "  b ", "c"}, texts(rows[0]))

	none := ""
	cfg := csvConfig()
	cfg.Whitespace = &none
	rows = readAll(t, " a ,b\n", cfg)
	assert.Equal(t, []string{" a ", "b"}, texts(rows[0]))
}

func TestWhitespaceDelimiterIsNotTrimmed(t *testing.T) {
	cfg := Config{ColumnDelimiters: []string{"\t"}}
	rows := readAll(t, "a\t\tb\n", cfg)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "", "b"}, texts(rows[0]))
}

func TestComments(t *testing.T) {
	cfg := csvConfig()
	cfg.Comment = "#"
	rows := readAll(t, "# header comment\na,b # trailing\n#x,y\nc,d\n", cfg)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, texts(rows[0]))
	assert.Equal(t, []string{"c", "d"}, texts(rows[1]))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 4, rows[1].Line)
}

func TestCommentInsideQuotesIsContent(t *testing.T) {
	cfg := csvConfig()
	cfg.Comment = "#"
	rows := readAll(t, "\"#1\",b\n", cfg)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"#1", "b"}, texts(rows[0]))
}

func TestEmptyLineHasNoTokens(t *testing.T) {
	rows := readAll(t, "a,b\n\n  \nc,d\n", csvConfig())
	require.Len(t, rows, 4)
	assert.Empty(t, rows[1].Tokens)
	assert.Empty(t, rows[2].Tokens)
	assert.Equal(t, 4, rows[3].Line)
}

func TestIgnoreTrailingDelimiters(t *testing.T) {
	cfg := Config{ColumnDelimiters: []string{"\t", ","}, IgnoreTrailingDelimiters: true}
	rows := readAll(t, "a\tb\t\t\nc,d,\n", cfg)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, texts(rows[0]))
	assert.Equal(t, "", rows[0].Tokens[1].Delimiter)
	// comma is not whitespace, so the trailing empty token stays
	assert.Equal(t, []string{"c", "d", ""}, texts(rows[1]))

	cfg.IgnoreTrailingDelimiters = false
	rows = readAll(t, "a\tb\t\t\n", cfg)
	assert.Equal(t, []string{"a", "b", "", ""}, texts(rows[0]))
}

func TestUnterminatedQuote(t *testing.T) {
	tk := New(strings.NewReader("a,b\nc,\"open\nmore"), csvConfig())
	_, err := tk.Next()
	require.NoError(t, err)

	_, err = tk.Next()
	var te *TokenizeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Line)
	assert.Equal(t, "unterminated quoted field", te.Reason)

	_, again := tk.Next()
	assert.Equal(t, err, again)
}

func TestUnterminatedEscape(t *testing.T) {
	tk := New(strings.NewReader(`"abc\`), csvConfig())
	_, err := tk.Next()
	var te *TokenizeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "unterminated escape sequence", te.Reason)
}

func TestRejectNewlineInQuotes(t *testing.T) {
	cfg := csvConfig()
	cfg.RejectNewlineInQuotes = true
	tk := New(strings.NewReader("\"a\nb\"\n"), cfg)
	_, err := tk.Next()
	var te *TokenizeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "new line in quoted string", te.Reason)
	assert.Equal(t, 1, te.Line)
}

func TestInterruptBetweenTokens(t *testing.T) {
	tk := New(strings.NewReader("a,b,c\nd,e,f\n"), csvConfig())
	calls := 0
	tk.SetInterrupt(func() bool {
		calls++
		return calls > 4
	})

	row, err := tk.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, texts(row))

	_, err = tk.Next()
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestMultiByteContent(t *testing.T) {
	cfg := Config{ColumnDelimiters: []string{"¦"}}
	rows := readAll(t, "grüße¦日本\n", cfg)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"grüße", "日本"}, texts(rows[0]))
}
