package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"linechat/internal/client"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:55555", "chat server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to %s: %v\n", *addr, err)
		os.Exit(1)
	}

	fmt.Printf("connected to %s\n", *addr)

	d := client.NewDuplexer(conn, os.Stdin, os.Stdout)
	if err := d.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "connection error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("disconnected")
}
