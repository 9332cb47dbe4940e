// Command minifs is the thin CLI shell over the minifs package (spec.md
// §6): it exposes mkfs/mkdir_fs/create_fs/write_fs/read_fs/ls_fs/
// delete_fs/rmdir_fs, all operating on a fixed disk.img in the current
// working directory. Argument parsing and user-facing text are
// deliberately unambitious here — the interesting work lives in the
// minifs package, not this shell — following the teacher's cmd/main.go,
// which kept its urfave/cli wiring equally thin.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dalci22/minifs/minifs"
	"github.com/urfave/cli/v2"
)

const diskImage = "disk.img"

func main() {
	app := cli.App{
		Name:  "minifs",
		Usage: "operate on a MiniFS disk image",
		Commands: []*cli.Command{
			{Name: "mkfs", Usage: "format disk.img", Action: cmdMkfs},
			{Name: "mkdir_fs", Usage: "create a directory", ArgsUsage: "PATH", Action: cmdMkdir},
			{Name: "create_fs", Usage: "create an empty file", ArgsUsage: "PATH", Action: cmdCreate},
			{Name: "write_fs", Usage: "overwrite a file", ArgsUsage: "PATH DATA", Action: cmdWrite},
			{Name: "read_fs", Usage: "read and print a file", ArgsUsage: "PATH", Action: cmdRead},
			{
				Name:      "ls_fs",
				Usage:     "list a directory",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "print entries as CSV instead of a tab-separated listing"},
				},
				Action: cmdList,
			},
			{Name: "delete_fs", Usage: "delete a file", ArgsUsage: "PATH", Action: cmdDelete},
			{Name: "rmdir_fs", Usage: "remove an empty directory", ArgsUsage: "PATH", Action: cmdRmdir},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("minifs: %s", err)
	}
}

func cmdMkfs(c *cli.Context) error {
	fs, err := minifs.Mkfs(diskImage)
	if err != nil {
		return err
	}
	return fs.Close()
}

func withFileSystem(fn func(fs *minifs.FileSystem) error) error {
	fs, err := minifs.Init(diskImage)
	if err != nil {
		return err
	}
	defer fs.Close()
	return fn(fs)
}

func requireArg(c *cli.Context, n int, name string) (string, error) {
	if c.Args().Len() <= n {
		return "", fmt.Errorf("missing required argument %s", name)
	}
	return c.Args().Get(n), nil
}

func cmdMkdir(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		return fs.Mkdir(path)
	})
}

func cmdCreate(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		return fs.Create(path)
	})
}

func cmdWrite(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	data, err := requireArg(c, 1, "DATA")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		_, err := fs.Write(path, []byte(data))
		return err
	})
}

func cmdRead(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		buf := make([]byte, 4096)
		n, err := fs.Read(path, buf)
		if err != nil {
			return err
		}
		fmt.Println(string(buf[:n]))
		return nil
	})
}

func cmdList(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		if c.Bool("csv") {
			out, err := fs.ListDirectoryCSV(path)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}

		entries, err := fs.List(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%d\t%s\n", e.Inum, e.Name)
		}
		return nil
	})
}

func cmdDelete(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		return fs.Delete(path)
	})
}

func cmdRmdir(c *cli.Context) error {
	path, err := requireArg(c, 0, "PATH")
	if err != nil {
		return err
	}
	return withFileSystem(func(fs *minifs.FileSystem) error {
		return fs.Rmdir(path)
	})
}
