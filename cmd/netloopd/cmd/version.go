/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nabbar/netloop/internal/clicolor"
)

var showLicense bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and license information",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := appVersion()

		if err := v.CheckGo("1.21", ">="); err != nil {
			clicolor.RoleWarn.Fprintf(os.Stderr, "%v\n", err)
		}

		clicolor.RoleHeader.Fprintf(os.Stdout, "%s\n\n", v.GetHeader())
		os.Stdout.WriteString(v.GetInfo())

		if showLicense {
			os.Stdout.WriteString("\n" + v.GetLicenseBoiler() + "\n")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&showLicense, "license", false, "also print the license boilerplate")
}
