package repository

import "testing"

func TestRebind(t *testing.T) {
	q := `UPDATE t SET a = ?, b = ? WHERE id = ?`
	if got := Postgres.rebind(q); got != `UPDATE t SET a = $1, b = $2 WHERE id = $3` {
		t.Fatalf("postgres rebind = %q", got)
	}
	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestJSONList(t *testing.T) {
	var l jsonList
	if err := l.Scan(`["a","b"]`); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(l) != 2 || l[1] != "b" {
		t.Fatalf("got %q", l)
	}
	v, err := l.Value()
	if err != nil || v != `["a","b"]` {
		t.Fatalf("Value = %v, %v", v, err)
	}

	var empty jsonList
	if err := empty.Scan(nil); err != nil || empty == nil {
		t.Fatalf("Scan(nil) = %v, %v", empty, err)
	}
}
