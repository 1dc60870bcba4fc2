package validate_test

import (
	"strings"
	"testing"

	"github.com/basicnode/ledger/business/sys/validate"
	"github.com/basicnode/ledger/foundation/blockchain/database"
)

func Test_Check(t *testing.T) {
	type table struct {
		name   string
		val    any
		fields []string
	}

	tt := []table{
		{name: "valid-tx", val: database.NewTx("Alice", "Bob", 100)},
		{name: "missing-sender", val: database.Tx{Recipient: "Bob", Amount: 1}, fields: []string{"sender"}},
		{name: "missing-both", val: database.Tx{Amount: 1}, fields: []string{"sender", "recipient"}},
		{
			name:   "short-hash",
			val:    database.BlockData{PrevBlockHash: strings.Repeat("0", 64), Hash: "0abc"},
			fields: []string{"hash"},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			err := validate.Check(tst.val)

			if len(tst.fields) == 0 {
				if err != nil {
					t.Fatalf("Test %s:\tShould pass validation: %v", tst.name, err)
				}
				return
			}

			if !validate.IsFieldErrors(err) {
				t.Fatalf("Test %s:\tShould get field errors: %v", tst.name, err)
			}

			fields := validate.GetFieldErrors(err).Fields()
			if len(fields) != len(tst.fields) {
				t.Logf("Test %s:\tgot: %v", tst.name, fields)
				t.Fatalf("Test %s:\tShould get %d field errors.", tst.name, len(tst.fields))
			}

			for _, name := range tst.fields {
				if _, exists := fields[name]; !exists {
					t.Fatalf("Test %s:\tShould get a field error for %s: %v", tst.name, name, fields)
				}
			}
		}

		t.Run(tst.name, f)
	}
}
