package banking

import (
	"errors"
	"testing"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name          string
		req           models.TransactionRequest
		noRecipient   bool
		wantErr       error
		wantSender    string
		wantRecipient string
	}{
		{
			name:          "deposit",
			req:           models.TransactionRequest{Type: models.Deposit, Amount: dec("500")},
			wantSender:    "10500",
			wantRecipient: "300",
		},
		{
			name:          "withdrawal",
			req:           models.TransactionRequest{Type: models.Withdrawal, Amount: dec("0.01")},
			wantSender:    "9999.99",
			wantRecipient: "300",
		},
		{
			name:          "withdrawal of whole balance",
			req:           models.TransactionRequest{Type: models.Withdrawal, Amount: dec("10000")},
			wantSender:    "0",
			wantRecipient: "300",
		},
		{
			name:          "withdrawal over balance",
			req:           models.TransactionRequest{Type: models.Withdrawal, Amount: dec("20000")},
			wantErr:       domain.ErrInsufficientBalance,
			wantSender:    "10000",
			wantRecipient: "300",
		},
		{
			name:          "transfer",
			req:           models.TransactionRequest{Type: models.Transfer, Amount: dec("300"), RecipientAccount: "2222222222"},
			wantSender:    "9700",
			wantRecipient: "600",
		},
		{
			name:          "transfer over balance is checked before recipient",
			req:           models.TransactionRequest{Type: models.Transfer, Amount: dec("10000.01")},
			wantErr:       domain.ErrInsufficientBalance,
			wantSender:    "10000",
			wantRecipient: "300",
		},
		{
			name:          "transfer without recipient account",
			req:           models.TransactionRequest{Type: models.Transfer, Amount: dec("1")},
			wantErr:       domain.ErrMissingRecipient,
			wantSender:    "10000",
			wantRecipient: "300",
		},
		{
			name:          "transfer to unknown account",
			req:           models.TransactionRequest{Type: models.Transfer, Amount: dec("1"), RecipientAccount: "0000000000"},
			noRecipient:   true,
			wantErr:       domain.ErrRecipientNotFound,
			wantSender:    "10000",
			wantRecipient: "300",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &models.Profile{ID: 1, UserID: 1, AccountNumber: "1111111111", Balance: dec("10000")}
			recipient := &models.Profile{ID: 2, UserID: 2, AccountNumber: "2222222222", Balance: dec("300")}

			var r *models.Profile
			if !tt.noRecipient {
				r = recipient
			}

			err := Apply(sender, r, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.True(t, dec(tt.wantSender).Equal(sender.Balance), "sender balance %s", sender.Balance)
			assert.True(t, dec(tt.wantRecipient).Equal(recipient.Balance), "recipient balance %s", recipient.Balance)
		})
	}
}

func TestApply_TransferConservesTotal(t *testing.T) {
	sender := &models.Profile{UserID: 1, Balance: dec("1234.56")}
	recipient := &models.Profile{UserID: 2, Balance: dec("78.90")}
	before := sender.Balance.Add(recipient.Balance)

	for _, amount := range []string{"0.01", "100", "1134.55"} {
		req := models.TransactionRequest{Type: models.Transfer, Amount: dec(amount), RecipientAccount: "x"}
		require.NoError(t, Apply(sender, recipient, req))
		assert.True(t, before.Equal(sender.Balance.Add(recipient.Balance)))
	}
}

func TestApply_SelfTransfer(t *testing.T) {
	sender := &models.Profile{ID: 1, UserID: 1, AccountNumber: "1111111111", Balance: dec("100")}
	self := *sender

	err := Apply(sender, &self, models.TransactionRequest{Type: models.Transfer, Amount: dec("10"), RecipientAccount: "1111111111"})
	require.ErrorIs(t, err, domain.ErrSelfTransfer)
	assert.True(t, dec("100").Equal(sender.Balance))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		req    models.TransactionRequest
		fields []string
	}{
		{"ok", models.TransactionRequest{Type: models.Deposit, Amount: dec("10.50")}, nil},
		{"missing type", models.TransactionRequest{Amount: dec("1")}, []string{"transaction_type"}},
		{"unknown type", models.TransactionRequest{Type: "loan", Amount: dec("1")}, []string{"transaction_type"}},
		{"zero amount", models.TransactionRequest{Type: models.Deposit, Amount: dec("0")}, []string{"amount"}},
		{"negative amount", models.TransactionRequest{Type: models.Deposit, Amount: dec("-5")}, []string{"amount"}},
		{"three decimals", models.TransactionRequest{Type: models.Deposit, Amount: dec("1.005")}, []string{"amount"}},
		{"too large", models.TransactionRequest{Type: models.Deposit, Amount: dec("10000000000000")}, []string{"amount"}},
		{"largest amount", models.TransactionRequest{Type: models.Deposit, Amount: dec("9999999999999.99")}, nil},
		{"exponent form", models.TransactionRequest{Type: models.Deposit, Amount: dec("15e2")}, nil},
		{"huge exponent", models.TransactionRequest{Type: models.Deposit, Amount: dec("1e40000000")}, []string{"amount"}},
		{"tiny exponent", models.TransactionRequest{Type: models.Deposit, Amount: dec("1e-40000000")}, []string{"amount"}},
		{
			"long recipient fields",
			models.TransactionRequest{
				Type:             models.Transfer,
				Amount:           dec("1"),
				Recipient:        string(make([]byte, 101)),
				RecipientAccount: "123456789012345678901",
			},
			[]string{"recipient", "recipient_account"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
			for _, f := range tt.fields {
				assert.Contains(t, ve.Fields, f)
			}
			assert.Len(t, ve.Fields, len(tt.fields))
		})
	}
}

func TestValidate_ExtremeExponentsReturnQuickly(t *testing.T) {
	for _, raw := range []string{"1e400000000", "1e-400000000", "123456789e2000000000"} {
		start := time.Now()
		err := Validate(models.TransactionRequest{Type: models.Deposit, Amount: dec(raw)})
		require.Error(t, err, raw)
		assert.Less(t, time.Since(start), 100*time.Millisecond, raw)
	}
}

func TestApply_BalanceLimit(t *testing.T) {
	sender := &models.Profile{UserID: 1, Balance: dec("10000")}
	recipient := &models.Profile{UserID: 2, Balance: dec("9999999999000")}

	err := Apply(sender, nil, models.TransactionRequest{Type: models.Deposit, Amount: dec("9999999999999.99")})
	require.ErrorIs(t, err, domain.ErrBalanceLimit)
	assert.True(t, dec("10000").Equal(sender.Balance))

	err = Apply(sender, recipient, models.TransactionRequest{Type: models.Transfer, Amount: dec("1000"), RecipientAccount: "2"})
	require.ErrorIs(t, err, domain.ErrBalanceLimit)
	assert.True(t, dec("10000").Equal(sender.Balance))
	assert.True(t, dec("9999999999000").Equal(recipient.Balance))

	require.NoError(t, Apply(sender, recipient, models.TransactionRequest{Type: models.Transfer, Amount: dec("999.99"), RecipientAccount: "2"}))
	assert.Equal(t, "9999999999999.99", recipient.Balance.String())
}
