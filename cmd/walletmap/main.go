// Command walletmap maintains a live map of Solana wallets and the tokens
// they hold, fed by a DEX trade stream.
package main

func main() {
	Execute()
}
