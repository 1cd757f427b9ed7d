package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	r := Default()
	cases := []struct {
		name      string
		attribute string
		want      Rank
	}{
		{name: "Генеральный директор", want: RankChiefExecutive},
		{name: "Финансовый директор", want: RankTop},
		{name: "Chief Executive", attribute: "CEO", want: RankChiefExecutive},
		{name: "Начальник отдела", want: RankTop},
		{name: "Инженер", attribute: "Руководитель группы", want: RankTop},
		{name: "Инженер", attribute: "специалист", want: RankRegular},
		{name: "Главный бухгалтер", want: RankRegular},
		{name: "Engineer", want: RankRegular},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, r.Classify(tc.name, tc.attribute), "%s / %s", tc.name, tc.attribute)
	}
}

func TestDomainOf_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := Default()
	d, ok := r.DomainOf("Финансовый директор")
	require.True(t, ok)
	require.Equal(t, "finance", d.Name)
	require.True(t, d.Covers("Финансовый отдел"))
	require.True(t, d.Covers("Бухгалтерия"))
	require.False(t, d.Covers("Отдел продаж"))

	d, ok = r.DomainOf("CTO")
	require.True(t, ok)
	require.Equal(t, "technical", d.Name)
	require.True(t, d.Covers("Отдел разработки"))

	_, ok = r.DomainOf("Директор по развитию")
	require.False(t, ok)
}

func TestDomains_ReturnsCopy(t *testing.T) {
	t.Parallel()

	r := Default()
	domains := r.Domains()
	domains[0].Name = "mutated"
	require.Equal(t, "finance", r.Domains()[0].Name)
}

func TestParse_Validation(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("board_name: B\n"))
	require.Error(t, err)

	_, err = Parse([]byte(`
root_name: R
board_name: B
name_director_title: [director]
domains:
  - name: x
    director: [a]
    division: [b]
  - name: x
    director: [c]
    division: [d]
`))
	require.ErrorContains(t, err, "duplicate domain")

	_, err = Parse([]byte("root_name: [oops"))
	require.Error(t, err)
}

func TestLoad_CustomFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root_name: Management
board_name: Board
name_director_title: [director]
name_chief_executive: [managing]
domains:
  - name: legal
    director: [legal]
    division: [law, legal]
`), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Board", r.BoardName())
	require.Equal(t, RankChiefExecutive, r.Classify("Managing Director", ""))
	d, ok := r.DomainOf("Legal Director")
	require.True(t, ok)
	require.True(t, d.Covers("Law Office"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
