// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdcmd/storage"
	"github.com/nixomose/nvmbdgo/nvmbdlib"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type nvmbd_cli struct {
	/* everything the subcommands share. each run of the cli opens the simulated device from the
	   image (or the geometry if there's no image yet), does one thing, and saves the image back if
	   it changed anything. */

	m_log           *tools.Nixomosetools_logger
	m_out           io.Writer
	m_geometry_file string
	m_image_file    string
	m_nb            bool
}

func main() {
	var log = tools.New_Nixomosetools_logger(tools.DEBUG)
	var root = new_root_command(log, os.Stdout)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func new_root_command(log *tools.Nixomosetools_logger, out io.Writer) *cobra.Command {
	var cli = nvmbd_cli{m_log: log, m_out: out}

	var root = &cobra.Command{
		Use:           "nvmbdcmd",
		Short:         "read, program and erase simulated non volatile memory through the block storage interface",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVarP(&cli.m_geometry_file, "geometry", "g", "", "yaml geometry file, default is one flash and one rram region")
	root.PersistentFlags().StringVarP(&cli.m_image_file, "image", "i", "", "image file holding the device contents between runs")
	root.PersistentFlags().BoolVar(&cli.m_nb, "nb", false, "use the non blocking program and erase")

	root.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "show the backend, what it can do, and its region table",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cli.info()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "geometry",
		Short: "print the geometry as yaml, a starting point for a --geometry file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cli.geometry()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "read <addr> <length>",
		Short: "hex dump length bytes at addr",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return cli.read(args)
		},
	})

	var program_file string
	var program_pattern uint8
	var program_length uint32
	var program_cmd = &cobra.Command{
		Use:   "program <addr>",
		Short: "program a file or a repeated byte at addr",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cli.program(args[0], program_file, program_pattern, program_length)
		},
	}
	program_cmd.Flags().StringVarP(&program_file, "file", "f", "", "file to program")
	program_cmd.Flags().Uint8VarP(&program_pattern, "pattern", "p", 0, "byte to program when there's no file")
	program_cmd.Flags().Uint32VarP(&program_length, "length", "l", 0, "number of bytes, defaults to the file size")
	root.AddCommand(program_cmd)

	root.AddCommand(&cobra.Command{
		Use:   "erase <addr> <length>",
		Short: "erase length bytes at addr",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return cli.erase(args)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "in-range <addr> <length>",
		Short: "ask the backend if addr and length are inside it",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return cli.in_range(args)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run <script.yaml>",
		Short: "run a yaml list of operations, stopping at the first one that fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cli.run(args[0])
		},
	})

	return root
}

func ret_error(ret tools.Ret) error {
	if ret == nil {
		return nil
	}
	return fmt.Errorf("error %d: %s", ret.Get_errcode(), ret.Get_errmsg())
}

func parse_u32(name string, s string) (uint32, error) {
	var v, err = strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}

func parse_addr_length(args []string) (uint32, uint32, error) {
	var addr, err = parse_u32("address", args[0])
	if err != nil {
		return 0, 0, err
	}
	var length uint32
	length, err = parse_u32("length", args[1])
	return addr, length, err
}

func (this *nvmbd_cli) open() (tools.Ret, *storage.Device, *storage.Image) {
	if this.m_image_file != "" {
		if _, err := os.Stat(this.m_image_file); err == nil {
			var ret, image = storage.Load_image(this.m_log, this.m_image_file)
			if ret != nil {
				return ret, nil, nil
			}
			var dev *storage.Device
			ret, dev = storage.Open_image(this.m_log, image, this.m_nb)
			if ret != nil {
				return ret, nil, nil
			}
			this.m_log.Debug("loaded image ", image.Id, " from ", this.m_image_file)
			return nil, dev, image
		}
	}

	var geometry = storage.Default_geometry()
	if this.m_geometry_file != "" {
		var ret, g = storage.Load_geometry(this.m_log, this.m_geometry_file)
		if ret != nil {
			return ret, nil, nil
		}
		geometry = *g
	}
	// --nb is for this run only, it doesn't go into the image.
	var run_geometry = geometry
	run_geometry.Non_blocking = run_geometry.Non_blocking || this.m_nb
	var ret, dev = storage.Open_device(this.m_log, &run_geometry)
	if ret != nil {
		return ret, nil, nil
	}
	return nil, dev, storage.New_image(&geometry)
}

func (this *nvmbd_cli) save(dev *storage.Device, image *storage.Image) tools.Ret {
	if this.m_image_file == "" {
		return nil
	}
	dev.Snapshot(image)
	return storage.Save_image(this.m_log, this.m_image_file, image)
}

/* open the device, run the operations, save if asked. the reads get dumped. */
func (this *nvmbd_cli) run_ops(ops []nvmbdlib.Operation, save bool) error {
	var ret, dev, image = this.open()
	if ret != nil {
		return ret_error(ret)
	}
	defer dev.Close()

	var runner = nvmbdlib.New_operation_runner(this.m_log, dev.Get_block_storage())
	var done int
	ret, done = runner.Run(ops)
	for i := 0; i < done; i++ {
		if ops[i].Kind == nvmbdlib.OPERATION_READ {
			fmt.Fprintf(this.m_out, "%08x:\n", ops[i].Addr)
			fmt.Fprint(this.m_out, hex.Dump(ops[i].Data[:ops[i].Length]))
		}
	}
	/* nothing gets rolled back on a failure, whatever made it to the part before then is still
	   there, so the image gets saved either way. */
	var save_ret tools.Ret
	if save {
		save_ret = this.save(dev, image)
	}
	if ret != nil {
		if len(ops) > 1 {
			fmt.Fprintf(this.m_out, "operation %d (%s at 0x%x) failed\n", done, ops[done].Kind, ops[done].Addr)
		}
		return ret_error(ret)
	}
	return ret_error(save_ret)
}

func (this *nvmbd_cli) info() error {
	var ret, dev, _ = this.open()
	if ret != nil {
		return ret_error(ret)
	}
	defer dev.Close()

	var bs = dev.Get_block_storage()
	var heading = color.New(color.FgCyan, color.Bold)
	heading.Fprintln(this.m_out, "backend")
	fmt.Fprintf(this.m_out, "  kind:         %s\n", bs.Get_backend_kind())
	fmt.Fprintf(this.m_out, "  capabilities: %s\n", bs.Get_capabilities())
	fmt.Fprintf(this.m_out, "  read size:    %d\n", bs.Get_read_size(0))

	var g = dev.Get_geometry()
	switch bs.Get_backend_kind() {
	case nvmbdinterfaces.BACKEND_ON_CHIP_NVM:
		heading.Fprintln(this.m_out, "regions")
		fmt.Fprintf(this.m_out, "  %-10s  %-10s  %-6s  %-6s  %-5s  %s\n", "start", "size", "block", "sector", "erase", "type")
		for _, r := range dev.Get_regions() {
			var erase = ""
			if r.Is_erase_required {
				erase = ", erase required"
			}
			fmt.Fprintf(this.m_out, "  0x%08x  0x%08x  %-6d  %-6d  0x%02x   %s%s\n", r.Start_address, r.Size,
				r.Block_size, r.Sector_size, r.Erase_value, r.Nvm_type, erase)
		}
	case nvmbdinterfaces.BACKEND_SERIAL_FLASH, nvmbdinterfaces.BACKEND_SERIAL_MEMORY:
		heading.Fprintln(this.m_out, "serial")
		fmt.Fprintf(this.m_out, "  size 0x%x, program size %d, erase size %d, erase value 0x%02x\n", g.Serial.Size,
			bs.Get_program_size(0), bs.Get_erase_size(0), bs.Get_erase_value(0))
	case nvmbdinterfaces.BACKEND_DIRECT_FLASH:
		heading.Fprintln(this.m_out, "direct")
		fmt.Fprintf(this.m_out, "  base 0x%08x, size 0x%x, row size %d\n", g.Direct.Base, g.Direct.Size, bs.Get_program_size(g.Direct.Base))
	}
	return nil
}

func (this *nvmbd_cli) geometry() error {
	var ret, dev, image = this.open()
	if ret != nil {
		return ret_error(ret)
	}
	defer dev.Close()

	var data []byte
	ret, data = image.Geometry.Marshal(this.m_log)
	if ret != nil {
		return ret_error(ret)
	}
	_, err := this.m_out.Write(data)
	return err
}

func (this *nvmbd_cli) read(args []string) error {
	var addr, length, err = parse_addr_length(args)
	if err != nil {
		return err
	}
	return this.run_ops([]nvmbdlib.Operation{{Kind: nvmbdlib.OPERATION_READ, Addr: addr, Length: length}}, false)
}

func (this *nvmbd_cli) program(addr_arg string, file string, pattern uint8, length uint32) error {
	var addr, err = parse_u32("address", addr_arg)
	if err != nil {
		return err
	}
	var data []byte
	if file != "" {
		if data, err = os.ReadFile(file); err != nil {
			return err
		}
		if length == 0 {
			length = uint32(len(data))
		}
	} else {
		if length == 0 {
			return errors.New("program needs --file or --length")
		}
		data = make([]byte, length)
		for i := range data {
			data[i] = pattern
		}
	}
	var kind = nvmbdlib.OPERATION_PROGRAM
	if this.m_nb {
		kind = nvmbdlib.OPERATION_PROGRAM_NB
	}
	return this.run_ops([]nvmbdlib.Operation{{Kind: kind, Addr: addr, Length: length, Data: data}}, true)
}

func (this *nvmbd_cli) erase(args []string) error {
	var addr, length, err = parse_addr_length(args)
	if err != nil {
		return err
	}
	var kind = nvmbdlib.OPERATION_ERASE
	if this.m_nb {
		kind = nvmbdlib.OPERATION_ERASE_NB
	}
	return this.run_ops([]nvmbdlib.Operation{{Kind: kind, Addr: addr, Length: length}}, true)
}

func (this *nvmbd_cli) in_range(args []string) error {
	var addr, length, err = parse_addr_length(args)
	if err != nil {
		return err
	}
	var ret, dev, _ = this.open()
	if ret != nil {
		return ret_error(ret)
	}
	defer dev.Close()

	var in_range bool
	ret, in_range = dev.Get_block_storage().Is_in_range(addr, length)
	if ret != nil {
		return ret_error(ret)
	}
	fmt.Fprintln(this.m_out, in_range)
	return nil
}

type script_operation struct {
	Op      string `yaml:"op"`
	Addr    uint32 `yaml:"addr"`
	Length  uint32 `yaml:"length"`
	Data    string `yaml:"data"` // hex, wins over pattern
	Pattern uint8  `yaml:"pattern"`
}

type script struct {
	Operations []script_operation `yaml:"operations"`
}

func (this *nvmbd_cli) load_script(filename string) ([]nvmbdlib.Operation, error) {
	var text, err = os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s script
	if err = yaml.Unmarshal(text, &s); err != nil {
		return nil, fmt.Errorf("unable to parse script %s: %w", filename, err)
	}
	var ops = make([]nvmbdlib.Operation, 0, len(s.Operations))
	for i, so := range s.Operations {
		var ret, kind = nvmbdlib.Parse_operation_kind(this.m_log, so.Op)
		if ret != nil {
			return nil, fmt.Errorf("operation %d: %w", i, ret_error(ret))
		}
		var op = nvmbdlib.Operation{Kind: kind, Addr: so.Addr, Length: so.Length}
		switch kind {
		case nvmbdlib.OPERATION_PROGRAM, nvmbdlib.OPERATION_PROGRAM_NB, nvmbdlib.OPERATION_UPDATE:
			if so.Data != "" {
				if op.Data, err = hex.DecodeString(strings.ReplaceAll(so.Data, " ", "")); err != nil {
					return nil, fmt.Errorf("operation %d has bad data: %w", i, err)
				}
			} else {
				op.Data = make([]byte, so.Length)
				for j := range op.Data {
					op.Data[j] = so.Pattern
				}
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (this *nvmbd_cli) run(filename string) error {
	var ops, err = this.load_script(filename)
	if err != nil {
		return err
	}
	return this.run_ops(ops, true)
}
