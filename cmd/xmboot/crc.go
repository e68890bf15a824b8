package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-xmboot/image"
	"github.com/moffa90/go-xmboot/protocol"
)

var crcBlocks bool

func init() {
	crcCmd.Flags().BoolVar(&crcBlocks, "blocks", false, "print the checksum of every transfer block")
	rootCmd.AddCommand(crcCmd)
}

var crcCmd = &cobra.Command{
	Use:   "crc IMAGE...",
	Short: "Print image checksums",
	Long: "Prints the CRC-16 (polynomial 0x1021, initial value 0) of each image, and with\n" +
		"--blocks the CRC-16 and 8-bit sum of every padded transfer block.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			img, err := image.Parse(path)
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s  base 0x%04X  %d bytes  %d blocks\n",
				cyan(fmt.Sprintf("%04X", protocol.CRC16(img.Data))), path,
				img.Base, img.Size(), img.BlockCount())

			if !crcBlocks {
				continue
			}
			for i, data := range img.Blocks() {
				var block protocol.Block
				for j := range block {
					block[j] = protocol.PadByte
				}
				copy(block[:], data)
				fmt.Printf("  %4d  0x%04X  crc %04X  sum %02X\n",
					i+1, img.Base+uint32(i*protocol.BlockSize),
					protocol.BlockCRC(&block), protocol.Sum8(block[:]))
			}
		}
		return nil
	},
}
