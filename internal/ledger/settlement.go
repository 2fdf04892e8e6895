package ledger

import "math"

// Transfer is one settlement payment: From pays Amount to To.
type Transfer struct {
	From   string
	To     string
	Amount float64
}

// Settle computes the transfers that even out a batch. paid is what each
// person actually paid at the till, owed is their share-weighted total
// from the ledger. Creditors are served largest-first so the transfer
// list stays short.
func Settle(paid, owed map[string]float64) []Transfer {
	type balance struct {
		person string
		amount float64
	}

	var creditors, debtors []balance
	for _, person := range sortedPersons(merge(paid, owed)) {
		net := paid[person] - owed[person]
		switch {
		case net > 0.005:
			creditors = append(creditors, balance{person, net})
		case net < -0.005:
			debtors = append(debtors, balance{person, -net})
		}
	}

	var transfers []Transfer
	for len(debtors) > 0 && len(creditors) > 0 {
		debtor := &debtors[0]
		creditor := &creditors[0]

		amount := math.Min(debtor.amount, creditor.amount)
		transfers = append(transfers, Transfer{
			From:   debtor.person,
			To:     creditor.person,
			Amount: round2(amount),
		})

		debtor.amount -= amount
		creditor.amount -= amount
		if debtor.amount <= 0.005 {
			debtors = debtors[1:]
		}
		if creditor.amount <= 0.005 {
			creditors = creditors[1:]
		}
	}
	return transfers
}

func merge(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
