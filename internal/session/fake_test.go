// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// memValkey answers the handful of commands TokenStore sends from an
// in-memory map, so error paths can be tested without a server. failNext
// makes the next command with that name fail once.
type memValkey struct {
	mu       sync.Mutex
	data     map[string]string
	failNext map[string]error
}

func newMemClient(t *testing.T) (*redis.Client, *memValkey) {
	t.Helper()
	mem := &memValkey{data: make(map[string]string), failNext: make(map[string]error)}
	client := redis.NewClient(&redis.Options{Addr: "mem:0"})
	client.AddHook(mem)
	t.Cleanup(func() { client.Close() })
	return client, mem
}

func (m *memValkey) fail(cmd string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[cmd] = err
}

func (m *memValkey) keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (m *memValkey) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("memValkey: no network")
	}
}

func (m *memValkey) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if err := m.process(cmd); err != nil {
				return err
			}
		}
		return nil
	}
}

func (m *memValkey) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return m.process(cmd)
	}
}

func (m *memValkey) process(cmd redis.Cmder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.ToLower(cmd.Name())
	if err, ok := m.failNext[name]; ok {
		delete(m.failNext, name)
		cmd.SetErr(err)
		return err
	}

	args := make([]string, len(cmd.Args()))
	for i, a := range cmd.Args() {
		args[i] = fmt.Sprint(a)
	}

	switch c := cmd.(type) {
	case *redis.StatusCmd: // SET without NX
		m.data[args[1]] = args[2]
		c.SetVal("OK")
	case *redis.BoolCmd: // SETNX, or SET ... NX with a TTL
		if _, taken := m.data[args[1]]; taken {
			c.SetVal(false)
			return nil
		}
		m.data[args[1]] = args[2]
		c.SetVal(true)
	case *redis.StringCmd: // GET
		v, ok := m.data[args[1]]
		if !ok {
			c.SetErr(redis.Nil)
			return redis.Nil
		}
		c.SetVal(v)
	case *redis.IntCmd: // DEL, EXISTS
		var n int64
		for _, k := range args[1:] {
			if _, ok := m.data[k]; ok {
				n++
				if name == "del" {
					delete(m.data, k)
				}
			}
		}
		c.SetVal(n)
	default:
		err := fmt.Errorf("memValkey: unsupported command %q", name)
		cmd.SetErr(err)
		return err
	}
	return nil
}
