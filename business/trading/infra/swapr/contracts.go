package swapr

// AlgebraQuoterABI covers quoteExactInputSingle on the Algebra (Swapr) quoter.
const AlgebraQuoterABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "tokenIn", "type": "address"},
			{"internalType": "address", "name": "tokenOut", "type": "address"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint160", "name": "limitSqrtPrice", "type": "uint160"}
		],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint16", "name": "fee", "type": "uint16"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
