package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// fakeChain answers view calls from canned outputs, ABI-encoded the same way
// a real node would. Calls for methods outside its ABI revert, which is what
// a contract of the other interface generation does.
type fakeChain struct {
	abi      abi.ABI
	code     []byte
	codeErr  error
	outputs  map[string][]interface{}
	callErrs map[string]error

	codeCalls int
	calls     map[string]int
}

func newFakeChain(contractABI abi.ABI) *fakeChain {
	return &fakeChain{
		abi:      contractABI,
		code:     []byte{0x60, 0x80},
		outputs:  make(map[string][]interface{}),
		callErrs: make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	f.codeCalls++
	return f.code, f.codeErr
}

func (f *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if len(call.Data) < 4 {
		return nil, fmt.Errorf("execution reverted")
	}

	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, fmt.Errorf("execution reverted")
	}
	f.calls[method.Name]++

	if err := f.callErrs[method.Name]; err != nil {
		return nil, err
	}

	out, ok := f.outputs[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	return method.Outputs.Pack(out...)
}

func fixedReader(f *fakeChain) func(ctx context.Context) (contractCaller, error) {
	return func(ctx context.Context) (contractCaller, error) {
		return f, nil
	}
}
