package rentchain

import (
	"crypto/ed25519"

	"github.com/rentchain/rentchain-go/solana"
)

// Seeds of the program derived addresses used by RentChain clients.
const (
	UserSeed        = "user"
	PropertySeed    = "property"
	ContractSeed    = "contract"
	TransactionSeed = "transaction"
	AutoPaymentSeed = "autopay"
)

// UserAddress returns the address of a wallet's user account.
func UserAddress(program, wallet ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(program, []byte(UserSeed), wallet)
}

// PropertyAddress returns the address of a property listed by owner.
func PropertyAddress(program ed25519.PublicKey, id string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(program, []byte(PropertySeed), []byte(id), owner)
}

// ContractAddress returns the address of a rental contract.
func ContractAddress(program ed25519.PublicKey, id string) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(program, []byte(ContractSeed), []byte(id))
}

// TransactionAddress returns the address of a payment record.
func TransactionAddress(program ed25519.PublicKey, id string) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(program, []byte(TransactionSeed), []byte(id))
}

// AutoPaymentAddress returns the address of a contract's recurring payment.
func AutoPaymentAddress(program ed25519.PublicKey, id, contractID string) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(program, []byte(AutoPaymentSeed), []byte(id), []byte(contractID))
}
