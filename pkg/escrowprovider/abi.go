package escrowprovider

import (
	"bytes"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// escrowABI is the deployed SecureSwap contract interface, field-for-field.
// The contract stores escrows behind split getters rather than one struct
// getter, so a full projection takes five read calls.
const escrowABI = `[
	{"type":"function","stateMutability":"view","name":"getEscrowParties","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"address"},{"name":"","type":"address"}]},
	{"type":"function","stateMutability":"view","name":"getEscrowAmounts","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"getEscrowFlags","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"flags","type":"bool[4]"}]},
	{"type":"function","stateMutability":"view","name":"getEscrowTimes","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"times","type":"uint256[2]"}]},
	{"type":"function","stateMutability":"view","name":"getEscrowDescription","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","stateMutability":"view","name":"getUserEscrows","inputs":[{"name":"_user","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","stateMutability":"view","name":"getContractStats","inputs":[],"outputs":[{"name":"stats","type":"uint256[4]"}]},
	{"type":"function","stateMutability":"view","name":"nextEscrowId","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","stateMutability":"view","name":"paused","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","stateMutability":"view","name":"serviceFeePercent","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"payable","name":"createEscrow","inputs":[{"name":"_partyB","type":"address"},{"name":"_amountB","type":"uint256"},{"name":"_description","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","stateMutability":"payable","name":"depositFunds","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"function","stateMutability":"nonpayable","name":"cancelEscrow","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"function","stateMutability":"nonpayable","name":"manualCompleteEscrow","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"EscrowCreated","inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"partyA","type":"address","indexed":true},{"name":"partyB","type":"address","indexed":true}],"anonymous":false},
	{"type":"event","name":"FundsDeposited","inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"depositor","type":"address","indexed":true}],"anonymous":false},
	{"type":"event","name":"EscrowCompleted","inputs":[{"name":"id","type":"uint256","indexed":true}],"anonymous":false},
	{"type":"event","name":"EscrowCancelled","inputs":[{"name":"id","type":"uint256","indexed":true}],"anonymous":false}
]`

// requiredMethods is the surface the client cannot work without. Used to
// tell a wrong or outdated deployment apart from an empty address.
var requiredMethods = []string{
	"getEscrowParties(uint256)",
	"getEscrowAmounts(uint256)",
	"getEscrowFlags(uint256)",
	"getEscrowTimes(uint256)",
	"getEscrowDescription(uint256)",
	"getUserEscrows(address)",
	"nextEscrowId()",
	"owner()",
	"paused()",
	"createEscrow(address,uint256,string)",
	"depositFunds(uint256)",
	"cancelEscrow(uint256)",
	"manualCompleteEscrow(uint256)",
}

// methodSelector returns the 4-byte dispatch selector for a canonical
// method signature.
func methodSelector(signature string) []byte {
	state := sha3.NewLegacyKeccak256()
	state.Write([]byte(signature))
	return state.Sum(nil)[:4]
}

// missingSelectors scans deployed bytecode for the PUSH4 selector immediates
// a Solidity dispatcher embeds, and returns the required signatures whose
// selector does not appear. A proxy contract hides selectors behind a
// delegatecall, so a non-empty result is a hint, not a verdict; callers
// must confirm with a probe call.
func missingSelectors(code []byte) []string {
	var missing []string
	for _, sig := range requiredMethods {
		if !bytes.Contains(code, methodSelector(sig)) {
			missing = append(missing, sig)
		}
	}
	return missing
}

// revertSelector prefixes ABI-encoded Error(string) revert data.
var revertSelector = methodSelector("Error(string)")

// decodeRevertReason extracts the reason string from Error(string) revert
// data. ok is false when the data is not a standard string revert.
func decodeRevertReason(data []byte) (string, bool) {
	if len(data) < 4+32+32 || !bytes.Equal(data[:4], revertSelector) {
		return "", false
	}
	payload := data[4:]
	plen := uint64(len(payload))

	// bounds are compared against pre-subtracted limits so that huge words
	// from a hostile node cannot wrap the arithmetic
	offset := new(big.Int).SetBytes(payload[:32])
	if !offset.IsUint64() || offset.Uint64() > plen-32 {
		return "", false
	}
	start := offset.Uint64()

	strLen := new(big.Int).SetBytes(payload[start : start+32])
	if !strLen.IsUint64() || strLen.Uint64() > plen-32-start {
		return "", false
	}
	return string(payload[start+32 : start+32+strLen.Uint64()]), true
}
