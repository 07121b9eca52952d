package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jhoicas/audita-nfe/internal/infrastructure/dictionary"
)

func newDictionaryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Consulta o dicionário de produtos monofásicos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Lista categorias, palavras-chave e prefixos NCM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), v)
			if err != nil {
				return err
			}
			cur := rt.dict.Current()
			cats, kws := cur.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "versão %s · %d categorias · %d palavras · limiar %d\n\n", cur.Fingerprint(), cats, kws, cur.Threshold())

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORIA\tMONOFÁSICA\tNCM\tPALAVRAS")
			for _, r := range cur.Rules() {
				mono := "não"
				if r.SinglePhase {
					mono = "sim"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Category, mono, strings.Join(r.NCMPrefixes, ","), strings.Join(r.Keywords, ", "))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <descrição>...",
		Short: "Mostra como cada descrição é classificada",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), v)
			if err != nil {
				return err
			}
			cur := rt.dict.Current()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DESCRIÇÃO\tCATEGORIA\tPALAVRA\tSCORE\tMONOFÁSICO")
			for _, desc := range args {
				res := cur.Classify(desc)
				if !res.Found() {
					fmt.Fprintf(tw, "%s\t-\t-\t0\tnão\n", desc)
					continue
				}
				mono := "não"
				if res.SinglePhase {
					mono = "sim"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", desc, res.Category, res.Keyword, res.Score, mono)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init <caminho>",
		Short: "Grava o dicionário embutido em um arquivo para edição",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := dictionary.WriteDefault(args[0])
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("%s já existe", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dicionário gravado em %s\n", args[0])
			return nil
		},
	})
	return cmd
}
