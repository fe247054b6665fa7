package reality

// RealityV3ABI holds the Reality.eth v3 view functions used to read answers.
const RealityV3ABI = `[
	{
		"inputs": [{"internalType": "bytes32", "name": "question_id", "type": "bytes32"}],
		"name": "isFinalized",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "bytes32", "name": "question_id", "type": "bytes32"}],
		"name": "resultFor",
		"outputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
		"stateMutability": "view",
		"type": "function"
	}
]`
